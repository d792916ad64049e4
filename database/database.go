package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"
)

func Open(dbURL string) (db *sql.DB, err error) {
	db, err = sql.Open("sqlite3", dbURL)
	if err != nil {
		return
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		db.Close()
		return
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	err = migrateDB(db)
	if err != nil {
		db.Close()
		return
	}

	return
}

const retryAttempts = 3

// WithRetry runs fn up to three times, backing off briefly when SQLite
// reports the database as busy or locked. Any other error stops the loop.
func WithRetry(ctx context.Context, fn func() error) (err error) {
	for i := 0; i < retryAttempts; i++ {
		err = fn()
		if !retryable(err) {
			return
		}
		select {
		case <-time.After(time.Duration(i+1) * 50 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return
}

func retryable(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}
