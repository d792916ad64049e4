// Package answers normalizes type-specific answer payloads into tagged
// values. One adapter dispatched on the question type replaces six
// near-identical lookup paths; a missing sidecar row is a normal state and
// resolves to an empty value, not an error.
package answers

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"

	"github.com/gzanin/formdeck/database"
	"github.com/gzanin/formdeck/fault"
	"github.com/gzanin/formdeck/model"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db}
}

// Resolve fetches the payload stored for answerID in the sidecar that qtype
// selects and normalizes it to a tagged value.
func (s *Store) Resolve(ctx context.Context, qtype model.QuestionType, answerID int) (model.AnswerValue, error) {
	switch qtype {
	case model.TypeText:
		return s.textLike(ctx, "text_answers", answerID)
	case model.TypeDate:
		return s.textLike(ctx, "date_answers", answerID)
	case model.TypeCoordinates:
		return s.textLike(ctx, "coordinate_answers", answerID)
	case model.TypeNumeric:
		return s.numeric(ctx, answerID)
	case model.TypeDropdown:
		return s.dropdown(ctx, answerID)
	case model.TypeImage:
		return s.image(ctx, answerID)
	}
	return model.AnswerValue{}, fmt.Errorf("answers: unknown question type %q", qtype)
}

func (s *Store) textLike(ctx context.Context, table string, answerID int) (model.AnswerValue, error) {
	var answer sql.NullString
	err := database.WithRetry(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT answer FROM `+table+` WHERE answer_id = ?`,
			answerID,
		).Scan(&answer)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return model.EmptyValue(), nil
	}
	if err != nil {
		return model.AnswerValue{}, fault.Storage("answers."+table, err)
	}
	return model.TextValue(answer.String), nil
}

// numeric values are surfaced as display text, not as numbers, to keep
// dashboard and export cells uniform.
func (s *Store) numeric(ctx context.Context, answerID int) (model.AnswerValue, error) {
	var answer sql.NullFloat64
	err := database.WithRetry(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT answer FROM numeric_answers WHERE answer_id = ?`,
			answerID,
		).Scan(&answer)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return model.EmptyValue(), nil
	}
	if err != nil {
		return model.AnswerValue{}, fault.Storage("answers.numeric", err)
	}
	if !answer.Valid {
		return model.EmptyValue(), nil
	}
	return model.TextValue(strconv.FormatFloat(answer.Float64, 'f', -1, 64)), nil
}

// dropdown resolution is a two-step lookup: the chosen option id, then the
// option's display text.
func (s *Store) dropdown(ctx context.Context, answerID int) (model.AnswerValue, error) {
	var optionID int
	err := database.WithRetry(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT option_id FROM dropdown_answers WHERE answer_id = ?`,
			answerID,
		).Scan(&optionID)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return model.EmptyValue(), nil
	}
	if err != nil {
		return model.AnswerValue{}, fault.Storage("answers.dropdown", err)
	}

	var text sql.NullString
	err = s.db.QueryRowContext(ctx,
		`SELECT option_text FROM dropdown_question_options WHERE option_id = ?`,
		optionID,
	).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return model.EmptyValue(), nil
	}
	if err != nil {
		return model.AnswerValue{}, fault.Storage("answers.dropdown.option", err)
	}
	return model.TextValue(text.String), nil
}

func (s *Store) image(ctx context.Context, answerID int) (model.AnswerValue, error) {
	raw, err := s.ImageBytes(ctx, answerID)
	if errors.Is(err, fault.ErrNotFound) {
		return model.NoneValue(), nil
	}
	if err != nil {
		return model.AnswerValue{}, err
	}
	return model.ImageValue(base64.StdEncoding.EncodeToString(raw), answerID), nil
}

// AnswerFormID returns the form the answer was submitted to, so retrieval
// endpoints can reject answer ids smuggled in under another form.
func (s *Store) AnswerFormID(ctx context.Context, answerID int) (int, error) {
	var formID int
	err := database.WithRetry(ctx, func() error {
		return s.db.QueryRowContext(ctx, `
			SELECT q.form_id
			FROM form_answers a
			INNER JOIN questions q ON (q.question_id = a.question_id)
			WHERE a.answer_id = ?`,
			answerID,
		).Scan(&formID)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fault.ErrNotFound
	}
	if err != nil {
		return 0, fault.Storage("answers.answer_form", err)
	}
	return formID, nil
}

// ImageBytes returns the raw stored image payload. Used by the adapter and
// by the image retrieval endpoint, which serves bytes instead of base64.
func (s *Store) ImageBytes(ctx context.Context, answerID int) ([]byte, error) {
	var raw []byte
	err := database.WithRetry(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT answer FROM image_answers WHERE answer_id = ?`,
			answerID,
		).Scan(&raw)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fault.ErrNotFound
	}
	if err != nil {
		return nil, fault.Storage("answers.image", err)
	}
	return raw, nil
}
