package app

import (
	"database/sql"

	"github.com/go-chi/jwtauth"

	"github.com/gzanin/formdeck/access"
	"github.com/gzanin/formdeck/answers"
	"github.com/gzanin/formdeck/catalog"
	"github.com/gzanin/formdeck/config"
	"github.com/gzanin/formdeck/filestore"
	"github.com/gzanin/formdeck/responses"
	"github.com/gzanin/formdeck/users"
)

type App struct {
	*sql.DB
	config.Config

	TokenAuth  *jwtauth.JWTAuth
	Gate       *access.Gate
	Catalog    *catalog.Catalog
	Answers    *answers.Store
	Aggregator *responses.Aggregator
	Users      *users.Service
	Exports    *filestore.Store
}

func New(db *sql.DB, cfg config.Config) (App, error) {
	exports, err := filestore.New(cfg.ExportDir, cfg.ExportLinger)
	if err != nil {
		return App{}, err
	}

	gate := access.NewGate(db)
	cat := catalog.New(db, gate)
	ans := answers.NewStore(db)

	return App{
		DB:         db,
		Config:     cfg,
		TokenAuth:  jwtauth.New("HS256", []byte(cfg.TokenSecret), nil),
		Gate:       gate,
		Catalog:    cat,
		Answers:    ans,
		Aggregator: responses.NewAggregator(db, gate, cat, ans),
		Users:      users.NewService(db),
		Exports:    exports,
	}, nil
}
