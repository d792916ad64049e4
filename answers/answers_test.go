package answers

import (
	"context"
	"database/sql"
	"encoding/base64"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

// seedAnswers builds one submission with an answer row per question type.
// Answer ids are fixed so each test can target its sidecar directly.
func seedAnswers(t *testing.T, db *sql.DB) {
	mustExec(t, db, `INSERT INTO forms (form_id, form_name) VALUES (1, 'All Types')`)
	mustExec(t, db, `INSERT INTO users (user_id, google_id, name, email) VALUES (1, 'g-1', 'Ada', 'ada@example.com')`)
	mustExec(t, db, `
		INSERT INTO questions (question_id, form_id, question_type_id, question_text, position) VALUES
		(1, 1, `+typeID("text")+`, 'T', 1),
		(2, 1, `+typeID("numeric")+`, 'N', 2),
		(3, 1, `+typeID("date")+`, 'D', 3),
		(4, 1, `+typeID("coordinates")+`, 'C', 4),
		(5, 1, `+typeID("dropdown")+`, 'DD', 5),
		(6, 1, `+typeID("image")+`, 'I', 6)`)
	mustExec(t, db, `INSERT INTO dropdown_question_options (option_id, question_id, option_text, position) VALUES (7, 5, 'Blue', 1)`)
	mustExec(t, db, `INSERT INTO form_submissions (submission_id, form_id, user_id, submitted_at) VALUES (1, 1, 1, '2026-01-01 10:00:00')`)
	mustExec(t, db, `
		INSERT INTO form_answers (answer_id, question_id, submission_id) VALUES
		(101, 1, 1), (102, 2, 1), (103, 3, 1), (104, 4, 1), (105, 5, 1), (106, 6, 1)`)
}

func TestResolveTextLike(t *testing.T) {
	db := openDB(t)
	seedAnswers(t, db)
	store := NewStore(db)
	ctx := context.Background()

	mustExec(t, db, `INSERT INTO text_answers (answer_id, answer) VALUES (101, 'hello')`)
	mustExec(t, db, `INSERT INTO date_answers (answer_id, answer) VALUES (103, '2026-02-14')`)
	mustExec(t, db, `INSERT INTO coordinate_answers (answer_id, answer) VALUES (104, '45.07,7.68')`)

	v, err := store.Resolve(ctx, model.TypeText, 101)
	require.NoError(t, err)
	assert.Equal(t, model.TextValue("hello"), v)

	v, err = store.Resolve(ctx, model.TypeDate, 103)
	require.NoError(t, err)
	assert.Equal(t, model.TextValue("2026-02-14"), v)

	v, err = store.Resolve(ctx, model.TypeCoordinates, 104)
	require.NoError(t, err)
	assert.Equal(t, model.TextValue("45.07,7.68"), v)
}

func TestResolveNullPayloadNormalizesToEmpty(t *testing.T) {
	db := openDB(t)
	seedAnswers(t, db)
	store := NewStore(db)

	mustExec(t, db, `INSERT INTO text_answers (answer_id, answer) VALUES (101, NULL)`)

	v, err := store.Resolve(context.Background(), model.TypeText, 101)
	require.NoError(t, err)
	assert.Equal(t, model.TextValue(""), v)
}

func TestResolveNumericSurfacesAsText(t *testing.T) {
	db := openDB(t)
	seedAnswers(t, db)
	store := NewStore(db)
	ctx := context.Background()

	mustExec(t, db, `INSERT INTO numeric_answers (answer_id, answer) VALUES (102, 42)`)

	v, err := store.Resolve(ctx, model.TypeNumeric, 102)
	require.NoError(t, err)
	assert.Equal(t, model.AnswerText, v.Type)
	assert.Equal(t, "42", v.Value)

	mustExec(t, db, `UPDATE numeric_answers SET answer = 2.5 WHERE answer_id = 102`)
	v, err = store.Resolve(ctx, model.TypeNumeric, 102)
	require.NoError(t, err)
	assert.Equal(t, "2.5", v.Value)
}

func TestResolveMissingSidecarRowIsEmptyNotError(t *testing.T) {
	db := openDB(t)
	seedAnswers(t, db)
	store := NewStore(db)
	ctx := context.Background()

	// the numeric sidecar insert is skipped for unparseable input, but the
	// answer row exists; the slot must still render as an empty cell
	v, err := store.Resolve(ctx, model.TypeNumeric, 102)
	require.NoError(t, err)
	assert.Equal(t, model.TextValue(""), v)

	v, err = store.Resolve(ctx, model.TypeDropdown, 105)
	require.NoError(t, err)
	assert.Equal(t, model.TextValue(""), v)
}

func TestResolveDropdownThroughOption(t *testing.T) {
	db := openDB(t)
	seedAnswers(t, db)
	store := NewStore(db)

	mustExec(t, db, `INSERT INTO dropdown_answers (answer_id, option_id) VALUES (105, 7)`)

	v, err := store.Resolve(context.Background(), model.TypeDropdown, 105)
	require.NoError(t, err)
	assert.Equal(t, model.AnswerValue{Type: model.AnswerText, Value: "Blue"}, v)
}

func TestResolveImage(t *testing.T) {
	db := openDB(t)
	seedAnswers(t, db)
	store := NewStore(db)
	ctx := context.Background()

	raw := []byte{0x89, 0x50, 0x4e, 0x47}
	mustExec(t, db, `INSERT INTO image_answers (answer_id, answer) VALUES (106, ?)`, raw)

	v, err := store.Resolve(ctx, model.TypeImage, 106)
	require.NoError(t, err)
	assert.Equal(t, model.AnswerImage, v.Type)
	assert.Equal(t, base64.StdEncoding.EncodeToString(raw), v.Value)
	assert.Equal(t, 106, v.AnswerID)

	bytes, err := store.ImageBytes(ctx, 106)
	require.NoError(t, err)
	assert.Equal(t, raw, bytes)
}

func TestAnswerFormID(t *testing.T) {
	db := openDB(t)
	seedAnswers(t, db)
	store := NewStore(db)
	ctx := context.Background()

	formID, err := store.AnswerFormID(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, 1, formID)

	_, err = store.AnswerFormID(ctx, 999)
	assert.ErrorIs(t, err, fault.ErrNotFound)
}

func TestResolveImageMissingIsNone(t *testing.T) {
	db := openDB(t)
	seedAnswers(t, db)
	store := NewStore(db)
	ctx := context.Background()

	v, err := store.Resolve(ctx, model.TypeImage, 106)
	require.NoError(t, err)
	assert.Equal(t, model.NoneValue(), v)

	_, err = store.ImageBytes(ctx, 106)
	assert.ErrorIs(t, err, fault.ErrNotFound)
}
