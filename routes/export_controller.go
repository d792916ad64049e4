package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gzanin/formdeck/app"
	"github.com/gzanin/formdeck/export"
	"github.com/gzanin/formdeck/httpx"
	"github.com/gzanin/formdeck/log"
	"github.com/gzanin/formdeck/routes/middlewares"
)

// ExportFile renders the response matrix as a downloadable spreadsheet.
// ?format=csv streams the delimited table directly; the default XLSX goes
// through the transient store and is removed once served.
func ExportFile(app app.App) http.HandlerFunc {
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
			httpx.LogFault(w, "export.aggregate", err)
			return
		}

		table, err := export.RenderCSV(matrix, export.ImageURL(app.BaseURL+"/api", formID))
		if err != nil {
			httpx.LogInternalError(w, "export.render_table", err)
			return
		}

		formName, err := app.Catalog.FormName(r.Context(), formID)
		if err != nil {
			httpx.LogFault(w, "export.form_name", err)
			return
		}

		if r.URL.Query().Get("format") == "csv" {
			w.Header().Set("Content-Type", "text/csv")
			w.Header().Set("Content-Disposition",
				"attachment; filename="+app.Exports.Filename(formName, userID, "csv"))
			w.Write(table)
			return
		}

		spreadsheet, err := export.ToSpreadsheet(table)
		if err != nil {
			httpx.LogInternalError(w, "export.to_spreadsheet", err)
			return
		}

		path, err := app.Exports.Put(app.Exports.Filename(formName, userID, "xlsx"), spreadsheet)
		if err != nil {
			httpx.LogInternalError(w, "export.store", err)
			return
		}
		app.Exports.ServeOnce(w, r, path)
	}
}
