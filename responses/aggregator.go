// Package responses joins submissions, questions and answers into the
// rectangular response matrix consumed by the dashboard and the exporter.
package responses

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gzanin/formdeck/access"
	"github.com/gzanin/formdeck/answers"
	"github.com/gzanin/formdeck/catalog"
	"github.com/gzanin/formdeck/database"
	"github.com/gzanin/formdeck/fault"
	"github.com/gzanin/formdeck/model"
)

type Aggregator struct {
	db      *sql.DB
	gate    *access.Gate
	catalog *catalog.Catalog
	answers *answers.Store
	now     func() time.Time
}

func NewAggregator(db *sql.DB, gate *access.Gate, cat *catalog.Catalog, ans *answers.Store) *Aggregator {
	return &Aggregator{db, gate, cat, ans, time.Now}
}

// All builds the full response matrix for a form: headers are question texts
// in position order, rows are submissions in descending submission time
// restricted to the given window. Every row has exactly one answer slot per
// question; a question with no answer in a submission yields an empty slot.
// Solvers and strangers get fault.ErrAccessDenied, never an empty matrix.
func (a *Aggregator) All(ctx context.Context, formID, userID int, window model.TimeWindow) (*model.ResponseMatrix, error) {
	if !a.gate.CanView(ctx, formID, userID) {
		return nil, fault.ErrAccessDenied
	}

	questions, err := a.catalog.Questions(ctx, formID, userID)
	if err != nil {
		return nil, err
	}

	submissions, err := a.submissions(ctx, formID, window)
	if err != nil {
		return nil, err
	}

	matrix := &model.ResponseMatrix{
		Headers: headers(questions),
		Rows:    []model.ResponseRow{},
	}
	for _, sub := range submissions {
		row, err := a.resolveRow(ctx, questions, sub.ID)
		if err != nil {
			return nil, err
		}
		matrix.Rows = append(matrix.Rows, row)
	}
	return matrix, nil
}

// One resolves a single submission to its answer slots plus the submitter's
// name, email and submission time. A missing submission is fault.ErrNotFound,
// distinct from fault.ErrAccessDenied.
func (a *Aggregator) One(ctx context.Context, formID, userID, submissionID int) ([]string, []model.AnswerValue, model.SubmissionDetails, error) {
	details := model.SubmissionDetails{}

	if !a.gate.CanView(ctx, formID, userID) {
		return nil, nil, details, fault.ErrAccessDenied
	}

	questions, err := a.catalog.Questions(ctx, formID, userID)
	if err != nil {
		return nil, nil, details, err
	}

	err = database.WithRetry(ctx, func() error {
		return a.db.QueryRowContext(ctx, `
			SELECT u.name, u.email, s.submitted_at
			FROM form_submissions s
			INNER JOIN users u ON (u.user_id = s.user_id)
			WHERE s.submission_id = ? AND s.form_id = ?`,
			submissionID, formID,
		).Scan(&details.User, &details.Email, &details.SubmittedAt)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, details, fault.ErrNotFound
	}
	if err != nil {
		return nil, nil, details, fault.Storage("responses.one.submission", err)
	}

	row, err := a.resolveRow(ctx, questions, submissionID)
	if err != nil {
		return nil, nil, details, err
	}
	return headers(questions), row.Answers, details, nil
}

func headers(questions []model.Question) []string {
	hs := make([]string, len(questions))
	for i, q := range questions {
		hs[i] = q.Text
	}
	return hs
}

func (a *Aggregator) submissions(ctx context.Context, formID int, window model.TimeWindow) ([]model.Submission, error) {
	query := `
		SELECT submission_id, form_id, user_id, submitted_at
		FROM form_submissions
		WHERE form_id = ?`
	args := []any{formID}

	if cutoff, ok := window.Cutoff(a.now()); ok {
		query += ` AND submitted_at >= ?`
		args = append(args, cutoff)
	}
	query += ` ORDER BY submitted_at DESC`

	var rows *sql.Rows
	err := database.WithRetry(ctx, func() (err error) {
		rows, err = a.db.QueryContext(ctx, query, args...)
		return
	})
	if err != nil {
		return nil, fault.Storage("responses.submissions", err)
	}
	defer rows.Close()

	submissions := []model.Submission{}
	for rows.Next() {
		s := model.Submission{}
		err = rows.Scan(&s.ID, &s.FormID, &s.UserID, &s.SubmittedAt)
		if err != nil {
			return nil, fault.Storage("responses.submissions.scan", err)
		}
		submissions = append(submissions, s)
	}
	return submissions, rows.Err()
}

// resolveRow walks the questions in order and emits one slot each: the empty
// placeholder when no answer row exists, the adapter's tagged value
// otherwise. Point lookups per cell keep the six sidecar schemas out of the
// join; output order and tagging are what matter here.
func (a *Aggregator) resolveRow(ctx context.Context, questions []model.Question, submissionID int) (model.ResponseRow, error) {
	row := model.ResponseRow{
		SubmissionID: submissionID,
		Answers:      make([]model.AnswerValue, 0, len(questions)),
	}
	for _, q := range questions {
		var answerID int
		err := database.WithRetry(ctx, func() error {
			return a.db.QueryRowContext(ctx, `
				SELECT answer_id FROM form_answers
				WHERE question_id = ? AND submission_id = ?`,
				q.ID, submissionID,
			).Scan(&answerID)
		})
		if errors.Is(err, sql.ErrNoRows) {
			row.Answers = append(row.Answers, model.EmptyValue())
			continue
		}
		if err != nil {
			return row, fault.Storage("responses.answer_row", err)
		}

		value, err := a.answers.Resolve(ctx, q.Type, answerID)
		if err != nil {
			return row, err
		}
		row.Answers = append(row.Answers, value)
	}
	return row, nil
}
