// Package users maps federated identities onto local user records. The
// identity provider is external; all that crosses the boundary is the
// subject id plus profile fields.
package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gzanin/formdeck/database"
	"github.com/gzanin/formdeck/fault"
)

// Identity is the profile handed over by the identity provider callback.
type Identity struct {
	Subject  string `json:"subject"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	PhotoURI string `json:"photo_uri"`
}

var ErrInvalidIdentity = errors.New("users: invalid identity")

type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db}
}

// Resolve returns the local user id for the identity, creating the user on
// first login.
func (s *Service) Resolve(ctx context.Context, id Identity) (int, error) {
	if id.Subject == "" {
		return 0, ErrInvalidIdentity
	}

	var userID int
	err := database.WithRetry(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT user_id FROM users WHERE google_id = ?`,
			id.Subject,
		).Scan(&userID)
	})
	if err == nil {
		return userID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fault.Storage("users.resolve", err)
	}

	err = database.WithRetry(ctx, func() error {
		return s.db.QueryRowContext(ctx, `
			INSERT INTO users (google_id, name, email, photo_uri)
			VALUES (?, ?, ?, ?)
			RETURNING user_id`,
			id.Subject, id.Name, id.Email, id.PhotoURI,
		).Scan(&userID)
	})
	if err != nil {
		return 0, fault.Storage("users.create", err)
	}
	return userID, nil
}

// Get loads a user's profile fields by local id.
func (s *Service) Get(ctx context.Context, userID int) (Identity, error) {
	id := Identity{}
	err := database.WithRetry(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT google_id, name, email, photo_uri FROM users WHERE user_id = ?`,
			userID,
		).Scan(&id.Subject, &id.Name, &id.Email, &id.PhotoURI)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return id, fault.ErrNotFound
	}
	if err != nil {
		return id, fault.Storage("users.get", err)
	}
	return id, nil
}
