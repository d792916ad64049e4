package responses

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gzanin/formdeck/access"
	"github.com/gzanin/formdeck/answers"
	"github.com/gzanin/formdeck/catalog"
	"github.com/gzanin/formdeck/database"
	"github.com/gzanin/formdeck/fault"
	"github.com/gzanin/formdeck/model"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func mustExec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	_, err := db.Exec(query, args...)
	require.NoError(t, err)
}

func typeID(qtype string) string {
	return `(SELECT question_type_id FROM question_types WHERE question_type = '` + qtype + `')`
}

func newAggregator(db *sql.DB) *Aggregator {
	gate := access.NewGate(db)
	return NewAggregator(db, gate, catalog.New(db, gate), answers.NewStore(db))
}

func seedBase(t *testing.T, db *sql.DB) {
	mustExec(t, db, `INSERT INTO forms (form_id, form_name) VALUES (1, 'Survey'), (3, 'Other Survey')`)
	mustExec(t, db, `
		INSERT INTO users (user_id, google_id, name, email) VALUES
		(1, 'g-1', 'Ada', 'ada@example.com'),
		(2, 'g-2', 'Ben', 'ben@example.com'),
		(3, 'g-3', 'Cleo', 'cleo@example.com')`)
	mustExec(t, db, `
		INSERT INTO forms_access (form_id, user_id, role) VALUES
		(1, 1, 'CREATOR'),
		(1, 2, 'SOLVER'),
		(3, 1, 'CREATOR')`)
	mustExec(t, db, `
		INSERT INTO questions (question_id, form_id, question_type_id, question_text, position) VALUES
		(1, 1, `+typeID("text")+`, 'Q1', 1),
		(2, 1, `+typeID("numeric")+`, 'Q2', 2),
		(3, 1, `+typeID("dropdown")+`, 'Q3', 3)`)
	mustExec(t, db, `
		INSERT INTO dropdown_question_options (option_id, question_id, option_text, position) VALUES
		(7, 3, 'Blue', 1),
		(9, 3, 'Red', 2)`)
}

func TestAllScenarioRow(t *testing.T) {
	db := openDB(t)
	seedBase(t, db)

	// one submission: Q1="hello", Q2 unanswered, Q3=Red
	mustExec(t, db, `INSERT INTO form_submissions (submission_id, form_id, user_id, submitted_at) VALUES (10, 1, 2, ?)`, time.Now())
	mustExec(t, db, `INSERT INTO form_answers (answer_id, question_id, submission_id) VALUES (101, 1, 10), (103, 3, 10)`)
	mustExec(t, db, `INSERT INTO text_answers (answer_id, answer) VALUES (101, 'hello')`)
	mustExec(t, db, `INSERT INTO dropdown_answers (answer_id, option_id) VALUES (103, 9)`)

	matrix, err := newAggregator(db).All(context.Background(), 1, 1, model.WindowAllTime)
	require.NoError(t, err)

	assert.Equal(t, []string{"Q1", "Q2", "Q3"}, matrix.Headers)
	require.Len(t, matrix.Rows, 1)
	assert.Equal(t, 10, matrix.Rows[0].SubmissionID)
	require.Len(t, matrix.Rows[0].Answers, len(matrix.Headers))

	values := make([]string, len(matrix.Rows[0].Answers))
	for i, a := range matrix.Rows[0].Answers {
		values[i] = a.Value
	}
	assert.Equal(t, []string{"hello", "", "Red"}, values)
}

func TestAllRowsAreRectangular(t *testing.T) {
	db := openDB(t)
	seedBase(t, db)

	mustExec(t, db, `
		INSERT INTO questions (question_id, form_id, question_type_id, question_text, position) VALUES
		(4, 1, `+typeID("date")+`, 'Q4', 4),
		(5, 1, `+typeID("coordinates")+`, 'Q5', 5),
		(6, 1, `+typeID("image")+`, 'Q6', 6)`)

	now := time.Now()
	// one fully answered submission, one with no answers at all
	mustExec(t, db, `INSERT INTO form_submissions (submission_id, form_id, user_id, submitted_at) VALUES (10, 1, 2, ?), (11, 1, 2, ?)`, now.Add(-time.Hour), now)
	mustExec(t, db, `
		INSERT INTO form_answers (answer_id, question_id, submission_id) VALUES
		(101, 1, 10), (102, 2, 10), (103, 3, 10), (104, 4, 10), (105, 5, 10), (106, 6, 10)`)
	mustExec(t, db, `INSERT INTO text_answers (answer_id, answer) VALUES (101, 'a')`)
	mustExec(t, db, `INSERT INTO numeric_answers (answer_id, answer) VALUES (102, 3)`)
	mustExec(t, db, `INSERT INTO dropdown_answers (answer_id, option_id) VALUES (103, 7)`)
	mustExec(t, db, `INSERT INTO date_answers (answer_id, answer) VALUES (104, '2026-03-01')`)
	mustExec(t, db, `INSERT INTO coordinate_answers (answer_id, answer) VALUES (105, '1,2')`)
	mustExec(t, db, `INSERT INTO image_answers (answer_id, answer) VALUES (106, ?)`, []byte{1, 2, 3})

	matrix, err := newAggregator(db).All(context.Background(), 1, 1, model.WindowAllTime)
	require.NoError(t, err)

	require.Len(t, matrix.Rows, 2)
	for _, row := range matrix.Rows {
		assert.Len(t, row.Answers, len(matrix.Headers))
	}

	// most recent first: the empty submission was newer
	assert.Equal(t, 11, matrix.Rows[0].SubmissionID)
	assert.Equal(t, 10, matrix.Rows[1].SubmissionID)

	// image slot carries its answer id for URL building
	assert.Equal(t, model.AnswerImage, matrix.Rows[1].Answers[5].Type)
	assert.Equal(t, 106, matrix.Rows[1].Answers[5].AnswerID)
}

func TestAllTimeWindows(t *testing.T) {
	db := openDB(t)
	seedBase(t, db)

	now := time.Now()
	mustExec(t, db, `
		INSERT INTO form_submissions (submission_id, form_id, user_id, submitted_at) VALUES
		(10, 1, 2, ?), (11, 1, 2, ?), (12, 1, 2, ?), (13, 1, 2, ?)`,
		now, now.AddDate(0, 0, -2), now.AddDate(0, 0, -10), now.AddDate(0, 0, -400))

	agg := newAggregator(db)
	ctx := context.Background()

	matrix, err := agg.All(ctx, 1, 1, model.WindowAllTime)
	require.NoError(t, err)
	ids := submissionIDs(matrix)
	assert.Equal(t, []int{10, 11, 12, 13}, ids)

	matrix, err = agg.All(ctx, 1, 1, model.WindowPastWeek)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 11}, submissionIDs(matrix))

	matrix, err = agg.All(ctx, 1, 1, model.WindowPastYear)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 11, 12}, submissionIDs(matrix))

	matrix, err = agg.All(ctx, 1, 1, model.WindowToday)
	require.NoError(t, err)
	assert.Equal(t, []int{10}, submissionIDs(matrix))
}

func submissionIDs(matrix *model.ResponseMatrix) []int {
	ids := make([]int, len(matrix.Rows))
	for i, row := range matrix.Rows {
		ids[i] = row.SubmissionID
	}
	return ids
}

func TestAllAccessDeniedIsNotAnEmptyMatrix(t *testing.T) {
	db := openDB(t)
	seedBase(t, db)
	agg := newAggregator(db)
	ctx := context.Background()

	// no grant at all
	_, err := agg.All(ctx, 1, 99, model.WindowAllTime)
	assert.ErrorIs(t, err, fault.ErrAccessDenied)

	// solvers may submit but not read results
	_, err = agg.All(ctx, 1, 2, model.WindowAllTime)
	assert.ErrorIs(t, err, fault.ErrAccessDenied)
}

func TestOneReturnsSubmitterDetails(t *testing.T) {
	db := openDB(t)
	seedBase(t, db)

	submitted := time.Now().Add(-time.Hour)
	mustExec(t, db, `INSERT INTO form_submissions (submission_id, form_id, user_id, submitted_at) VALUES (10, 1, 2, ?)`, submitted)
	mustExec(t, db, `INSERT INTO form_answers (answer_id, question_id, submission_id) VALUES (101, 1, 10)`)
	mustExec(t, db, `INSERT INTO text_answers (answer_id, answer) VALUES (101, 'hi')`)

	headers, answers, details, err := newAggregator(db).One(context.Background(), 1, 1, 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"Q1", "Q2", "Q3"}, headers)
	require.Len(t, answers, 3)
	assert.Equal(t, "hi", answers[0].Value)

	// the submitter, not the requesting viewer
	assert.Equal(t, "Ben", details.User)
	assert.Equal(t, "ben@example.com", details.Email)
	assert.WithinDuration(t, submitted, details.SubmittedAt, time.Second)
}

func TestOneDistinguishesNotFoundFromDenied(t *testing.T) {
	db := openDB(t)
	seedBase(t, db)
	mustExec(t, db, `INSERT INTO form_submissions (submission_id, form_id, user_id, submitted_at) VALUES (30, 3, 1, ?)`, time.Now())

	agg := newAggregator(db)
	ctx := context.Background()

	_, _, _, err := agg.One(ctx, 1, 1, 999)
	assert.ErrorIs(t, err, fault.ErrNotFound)

	// submission exists but belongs to another form
	_, _, _, err = agg.One(ctx, 1, 1, 30)
	assert.ErrorIs(t, err, fault.ErrNotFound)

	_, _, _, err = agg.One(ctx, 1, 2, 999)
	assert.ErrorIs(t, err, fault.ErrAccessDenied)
}
