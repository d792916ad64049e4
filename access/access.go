// Package access resolves what a user may do with a form. The gate fails
// closed: a storage fault resolves to no access, never to a grant.
package access

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gzanin/formdeck/database"
	"github.com/gzanin/formdeck/fault"
	"github.com/gzanin/formdeck/log"
	"github.com/gzanin/formdeck/model"
)

type Gate struct {
	db *sql.DB
}

func NewGate(db *sql.DB) *Gate {
	return &Gate{db}
}

// ResolveRole returns the role granted to user on form, or ok=false when no
// grant exists or the stored role identifier is not a known role.
func (g *Gate) ResolveRole(ctx context.Context, formID, userID int) (role model.Role, ok bool, err error) {
	err = database.WithRetry(ctx, func() error {
		return g.db.QueryRowContext(ctx, `
			SELECT role FROM forms_access
			WHERE form_id = ? AND user_id = ?`,
			formID, userID,
		).Scan(&role)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fault.Storage("access.resolve_role", err)
	}
	if !model.KnownRole(role) {
		return "", false, nil
	}
	return role, true, nil
}

// CanSubmit reports whether user holds any grant on form. The name is a
// historical artifact: every granted role, solvers included, may submit.
func (g *Gate) CanSubmit(ctx context.Context, formID, userID int) bool {
	_, ok, err := g.ResolveRole(ctx, formID, userID)
	if err != nil {
		log.Warnf("access.can_submit: failing closed: %s", err)
		return false
	}
	return ok
}

// CanView reports whether user may see aggregated responses: creators and
// viewers only, solvers may submit but not read results.
func (g *Gate) CanView(ctx context.Context, formID, userID int) bool {
	role, ok, err := g.ResolveRole(ctx, formID, userID)
	if err != nil {
		log.Warnf("access.can_view: failing closed: %s", err)
		return false
	}
	return ok && (role == model.RoleCreator || role == model.RoleViewer)
}
