// Package filestore holds transient export files. Deletion is triggered by
// response completion rather than a fixed timer; a janitor sweeps anything a
// crash left behind once it outlives the linger period.
package filestore

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gofrs/uuid"

	"github.com/gzanin/formdeck/log"
)

type Store struct {
	dir    string
	linger time.Duration
}

func New(dir string, linger time.Duration) (*Store, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "formdeck-exports")
	}
	err := os.MkdirAll(dir, 0o700)
	if err != nil {
		return nil, err
	}
	return &Store{dir, linger}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

var reNoIdent = regexp.MustCompile(`\W+`)

// Filename builds a per-user, per-form file name so concurrent exports never
// collide, with a random suffix on top in case the same user exports the
// same form twice at once.
func (s *Store) Filename(formName string, userID int, ext string) string {
	slug := strings.ToLower(formName)
	slug = reNoIdent.ReplaceAllLiteralString(slug, " ")
	slug = strings.Join(strings.Fields(slug), "-")
	if slug == "" {
		slug = "form"
	}

	suffix := uuid.Must(uuid.NewV4()).String()[:8]
	return fmt.Sprintf("%s-u%d-%s.%s", slug, userID, suffix, ext)
}

// Put writes data under name and returns the full path.
func (s *Store) Put(name string, data []byte) (string, error) {
	path := filepath.Join(s.dir, name)
	err := os.WriteFile(path, data, 0o600)
	if err != nil {
		return "", err
	}
	return path, nil
}

// ServeOnce streams the file as an attachment and removes it once the
// response body has been written. The download can never race its own
// cleanup this way.
func (s *Store) ServeOnce(w http.ResponseWriter, r *http.Request, path string) {
	defer func() {
		err := os.Remove(path)
		if err != nil {
			log.Warnf("filestore.serve_once.remove: %s", err)
		}
	}()

	w.Header().Set("Content-Disposition", "attachment; filename="+filepath.Base(path))
	http.ServeFile(w, r, path)
}

// StartJanitor sweeps leftover files in the background until ctx is done.
func (s *Store) StartJanitor(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.linger)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Sweep removes files that have outlived the linger period. Files younger
// than that may still be mid-download.
func (s *Store) Sweep() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		log.Warnf("filestore.sweep: %s", err)
		return
	}

	deadline := time.Now().Add(-s.linger)
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || info.IsDir() {
			continue
		}
		if info.ModTime().After(deadline) {
			continue
		}
		err = os.Remove(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			log.Warnf("filestore.sweep.remove: %s", err)
		}
	}
}
