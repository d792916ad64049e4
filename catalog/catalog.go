// Package catalog loads form and question definitions.
package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gzanin/formdeck/access"
	"github.com/gzanin/formdeck/database"
	"github.com/gzanin/formdeck/fault"
	"github.com/gzanin/formdeck/model"
)

type Catalog struct {
	db   *sql.DB
	gate *access.Gate
}

func New(db *sql.DB, gate *access.Gate) *Catalog {
	return &Catalog{db, gate}
}

// Questions returns the form's questions in position order, with dropdown
// options attached in their own position order. Requires any access on the
// form; an empty slice is a valid result for a freshly created form and is
// distinct from fault.ErrAccessDenied.
func (c *Catalog) Questions(ctx context.Context, formID, userID int) ([]model.Question, error) {
	if !c.gate.CanSubmit(ctx, formID, userID) {
		return nil, fault.ErrAccessDenied
	}

	var rows *sql.Rows
	err := database.WithRetry(ctx, func() (err error) {
		rows, err = c.db.QueryContext(ctx, `
			SELECT q.question_id, q.form_id, q.question_text, t.question_type
			FROM questions q
			LEFT JOIN question_types t ON (t.question_type_id = q.question_type_id)
			WHERE q.form_id = ?
			ORDER BY q.position`,
			formID,
		)
		return
	})
	if err != nil {
		return nil, fault.Storage("catalog.questions", err)
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		q := model.Question{}
		err := rows.Scan(&q.ID, &q.FormID, &q.Text, &q.Type)
		if err != nil {
			return nil, fault.Storage("catalog.questions.scan", err)
		}
		questions = append(questions, q)
	}
	if err = rows.Err(); err != nil {
		return nil, fault.Storage("catalog.questions.rows", err)
	}

	for i := range questions {
		if questions[i].Type != model.TypeDropdown {
			continue
		}
		options, err := c.options(ctx, questions[i].ID)
		if err != nil {
			return nil, err
		}
		questions[i].Options = options
	}

	return questions, nil
}

func (c *Catalog) options(ctx context.Context, questionID int) ([]model.Option, error) {
	var rows *sql.Rows
	err := database.WithRetry(ctx, func() (err error) {
		rows, err = c.db.QueryContext(ctx, `
			SELECT option_id, option_text
			FROM dropdown_question_options
			WHERE question_id = ?
			ORDER BY position`,
			questionID,
		)
		return
	})
	if err != nil {
		return nil, fault.Storage("catalog.options", err)
	}
	defer rows.Close()

	options := []model.Option{}
	for rows.Next() {
		o := model.Option{}
		err = rows.Scan(&o.ID, &o.Text)
		if err != nil {
			return nil, fault.Storage("catalog.options.scan", err)
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

// Question looks up a single question. The result carries its form id so
// callers can reject question ids smuggled in from another form.
func (c *Catalog) Question(ctx context.Context, questionID int) (model.Question, error) {
	q := model.Question{}
	err := database.WithRetry(ctx, func() error {
		return c.db.QueryRowContext(ctx, `
			SELECT q.question_id, q.form_id, q.question_text, t.question_type
			FROM questions q
			LEFT JOIN question_types t ON (t.question_type_id = q.question_type_id)
			WHERE q.question_id = ?`,
			questionID,
		).Scan(&q.ID, &q.FormID, &q.Text, &q.Type)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return q, fault.ErrNotFound
	}
	if err != nil {
		return q, fault.Storage("catalog.question", err)
	}
	return q, nil
}

func (c *Catalog) FormName(ctx context.Context, formID int) (string, error) {
	var name string
	err := database.WithRetry(ctx, func() error {
		return c.db.QueryRowContext(ctx, `
			SELECT form_name FROM forms WHERE form_id = ?`,
			formID,
		).Scan(&name)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", fault.ErrNotFound
	}
	if err != nil {
		return "", fault.Storage("catalog.form_name", err)
	}
	return name, nil
}
