package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gzanin/formdeck/app"
	"github.com/gzanin/formdeck/config"
	"github.com/gzanin/formdeck/database"
	"github.com/gzanin/formdeck/log"
	"github.com/gzanin/formdeck/routes"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg.DBUrl)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	app, err := app.New(db, cfg)
	if err != nil {
		log.Fatal("main.app:", err)
	}
	app.Exports.StartJanitor(context.Background())

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
