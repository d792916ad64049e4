package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/gzanin/formdeck/app"
	"github.com/gzanin/formdeck/fault"
	"github.com/gzanin/formdeck/httpx"
	"github.com/gzanin/formdeck/log"
	"github.com/gzanin/formdeck/model"
	"github.com/gzanin/formdeck/routes/middlewares"
)

func parseWindow(s string) (model.TimeWindow, bool) {
	switch model.TimeWindow(s) {
	case "":
		return model.WindowAllTime, true
	case model.WindowToday, model.WindowPastWeek, model.WindowPastYear, model.WindowAllTime:
		return model.TimeWindow(s), true
	}
	return "", false
}

// Dashboard serves the aggregated response matrix for a form, optionally
// restricted by ?window=today|past_week|past_year|all_time.
func Dashboard(app app.App) http.HandlerFunc {
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
		window, ok := parseWindow(r.URL.Query().Get("window"))
		if !ok {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_query_param.window")
			return
		}

		matrix, err := app.Aggregator.All(r.Context(), formID, userID, window)
		if err != nil {
			httpx.LogFault(w, "dashboard.aggregate", err)
			return
		}

		render.JSON(w, r, matrix)
	}
}

// GetResponse serves one submission's answers plus who submitted it.
func GetResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID, err := strconv.Atoi(chi.URLParam(r, "form"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.form")
			return
		}
		submissionID, err := strconv.Atoi(chi.URLParam(r, "submission"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.submission")
			return
		}
		userID, ok := middlewares.UserID(r)
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "request.user_id")
			return
		}

		headers, answers, details, err := app.Aggregator.One(r.Context(), formID, userID, submissionID)
		if err != nil {
			httpx.LogFault(w, "response.aggregate", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"headers":    headers,
			"answers":    answers,
			"submission": details,
		})
	}
}

// GetImage serves the raw stored image for an answer, read-gated like the
// dashboard it is linked from.
func GetImage(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID, err := strconv.Atoi(chi.URLParam(r, "form"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.form")
			return
		}
		answerID, err := strconv.Atoi(chi.URLParam(r, "answer"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.answer")
			return
		}
		userID, ok := middlewares.UserID(r)
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "request.user_id")
			return
		}

		if !app.Gate.CanView(r.Context(), formID, userID) {
			httpx.LogFault(w, "image.access", fault.ErrAccessDenied)
			return
		}

		// an answer id from another form is a miss, not a leak
		answerFormID, err := app.Answers.AnswerFormID(r.Context(), answerID)
		if err != nil {
			httpx.LogFault(w, "image.answer_form", err)
			return
		}
		if answerFormID != formID {
			httpx.LogFault(w, "image.answer_form", fault.ErrNotFound)
			return
		}

		raw, err := app.Answers.ImageBytes(r.Context(), answerID)
		if err != nil {
			httpx.LogFault(w, "image.load", err)
			return
		}

		w.Header().Set("Content-Type", http.DetectContentType(raw))
		w.Write(raw)
	}
}
