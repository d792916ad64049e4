package routes

import (
	"database/sql"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/gzanin/formdeck/app"
	"github.com/gzanin/formdeck/fault"
	"github.com/gzanin/formdeck/httpx"
	"github.com/gzanin/formdeck/log"
	"github.com/gzanin/formdeck/model"
	"github.com/gzanin/formdeck/routes/middlewares"
)

const maxSubmissionMemory = 32 << 20

// SubmitForm records one submission. The multipart body carries one field
// per question, keyed by question id; image questions arrive as file parts.
// All rows land in a single transaction so a failed answer never leaves a
// half-written submission behind.
func SubmitForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID, err := strconv.Atoi(chi.URLParam(r, "form"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.form")
			return
		}
		userID, ok := middlewares.UserID(r)
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "request.user_id")
			return
		}

		if !app.Gate.CanSubmit(r.Context(), formID, userID) {
			httpx.LogFault(w, "submit.access", fault.ErrAccessDenied)
			return
		}

		err = r.ParseMultipartForm(maxSubmissionMemory)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var submissionID int
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO form_submissions (form_id, user_id, submitted_at) VALUES (?, ?, ?)
			RETURNING submission_id`,
			formID, userID, time.Now(),
		).Scan(&submissionID)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_submission", err)
			return
		}

		for key, values := range r.MultipartForm.Value {
			if len(values) == 0 {
				continue
			}
			if !writeAnswer(w, r, app, tx, formID, submissionID, key, values[0], nil) {
				return
			}
		}
		for key, files := range r.MultipartForm.File {
			if len(files) == 0 {
				continue
			}
			if !writeAnswer(w, r, app, tx, formID, submissionID, key, "", files[0]) {
				return
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_submission.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": submissionID,
		})
	}
}

// writeAnswer persists one answer inside the submission transaction. It
// writes the HTTP error itself and reports false when the handler must stop.
func writeAnswer(
	w http.ResponseWriter, r *http.Request,
	app app.App, tx *sql.Tx,
	formID, submissionID int,
	key, value string, file *multipart.FileHeader,
) bool {
	questionID, err := strconv.Atoi(key)
	if err != nil {
		httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "submit.field", "field name %q is not a question id", key)
		return false
	}

	question, err := app.Catalog.Question(r.Context(), questionID)
	if err != nil {
		httpx.LogFault(w, "submit.question", err)
		return false
	}
	if question.FormID != formID {
		httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "submit.question.form", "question %d does not belong to form %d", questionID, formID)
		return false
	}
	if file != nil && question.Type != model.TypeImage {
		httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "submit.question.file", "question %d does not take a file", questionID)
		return false
	}

	// strict mode rejects before any sidecar write; otherwise the answer row
	// is still created and the numeric sidecar insert is skipped, so the cell
	// aggregates as empty
	var numericValue float64
	numericOk := false
	if question.Type == model.TypeNumeric {
		numericValue, err = strconv.ParseFloat(value, 64)
		numericOk = err == nil && value != ""
		if !numericOk && app.StrictNumeric {
			httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel, "submit.numeric", "question %d requires a numeric answer", questionID)
			return false
		}
	}

	var answerID int
	err = tx.QueryRowContext(r.Context(), `
		INSERT INTO form_answers (question_id, submission_id) VALUES (?, ?)
		RETURNING answer_id`,
		questionID, submissionID,
	).Scan(&answerID)
	if err != nil {
		httpx.LogInternalError(w, "db.insert_answer", err)
		return false
	}

	switch question.Type {
	case model.TypeText:
		_, err = tx.ExecContext(r.Context(),
			`INSERT INTO text_answers (answer_id, answer) VALUES (?, ?)`,
			answerID, value)

	case model.TypeDate:
		_, err = tx.ExecContext(r.Context(),
			`INSERT INTO date_answers (answer_id, answer) VALUES (?, ?)`,
			answerID, value)

	case model.TypeCoordinates:
		_, err = tx.ExecContext(r.Context(),
			`INSERT INTO coordinate_answers (answer_id, answer) VALUES (?, ?)`,
			answerID, value)

	case model.TypeNumeric:
		if numericOk {
			_, err = tx.ExecContext(r.Context(),
				`INSERT INTO numeric_answers (answer_id, answer) VALUES (?, ?)`,
				answerID, numericValue)
		}

	case model.TypeDropdown:
		optionID, convErr := strconv.Atoi(value)
		if convErr != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "submit.dropdown", "question %d requires an option id", questionID)
			return false
		}
		_, err = tx.ExecContext(r.Context(),
			`INSERT INTO dropdown_answers (answer_id, option_id) VALUES (?, ?)`,
			answerID, optionID)

	case model.TypeImage:
		if file == nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "submit.image", "question %d requires a file", questionID)
			return false
		}
		var raw []byte
		raw, err = readFile(file)
		if err == nil {
			_, err = tx.ExecContext(r.Context(),
				`INSERT INTO image_answers (answer_id, answer) VALUES (?, ?)`,
				answerID, raw)
		}
	}
	if err != nil {
		httpx.LogInternalError(w, "db.insert_answer.payload", err)
		return false
	}
	return true
}

func readFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
