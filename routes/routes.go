package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gzanin/formdeck/app"
	"github.com/gzanin/formdeck/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))
	root.Mount("/", servePublicFiles())

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Post("/login", Login(app))

	api.Group(func(r chi.Router) {
		r.Use(middlewares.Authenticated(app.TokenAuth)...)

		r.Get(`/{form:^\d+$}/dashboard`, Dashboard(app))
		r.Get(`/{form:^\d+$}/exportfile`, ExportFile(app))
		r.Get(`/{form:^\d+$}/image/{answer:^\d+$}`, GetImage(app))
		r.Get(`/{form:^\d+$}/{submission:^\d+$}`, GetResponse(app))
		r.Post(`/{form:^\d+$}/form`, SubmitForm(app))
	})

	return api
}

func servePublicFiles() http.Handler {
	return http.FileServer(http.Dir("public"))
}
