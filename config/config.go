package config

import (
	"errors"
	"flag"
	"net"
	"regexp"
	"strconv"
	"time"
)

type Config struct {
	Addr          string
	BaseURL       string
	DBUrl         string
	TokenSecret   string
	TokenTTL      time.Duration
	ExportDir     string
	ExportLinger  time.Duration
	StrictNumeric bool
	Debug         bool
}

func ParseFlags() (cfg Config, err error) {
	var host string
	flag.StringVar(&host, "host", "0.0.0.0", "listen host name (default 0.0.0.0)")
	var port uint
	flag.UintVar(&port, "port", 80, "listen port number (default 80)")
	flag.StringVar(&cfg.BaseURL, "base-url", "", "absolute base URL for exported image links (default http://<addr>)")
	flag.StringVar(&cfg.DBUrl, "db-url", "formdeck.sqlite", "path to SQLite3 DB file (default formdeck.sqlite)")
	flag.StringVar(&cfg.TokenSecret, "token-secret", "", "secret key for session token signing")
	var ttl uint
	flag.UintVar(&ttl, "token-ttl", 3600, "session token TTL in seconds (default 3600)")
	flag.StringVar(&cfg.ExportDir, "export-dir", "", "directory for transient export files (default OS temp dir)")
	var linger uint
	flag.UintVar(&linger, "export-linger", 900, "seconds before leftover export files are swept (default 900)")
	flag.BoolVar(&cfg.StrictNumeric, "strict-numeric", false, "reject the whole submission when a numeric answer does not parse")
	flag.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second
	cfg.ExportLinger = time.Duration(linger) * time.Second

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = cfg.Url()
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
