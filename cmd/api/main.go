package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "github.com/b-coman/prop-management-sub006/internal/adapters/http_server"
	"github.com/b-coman/prop-management-sub006/internal/adapters/ical"
	"github.com/b-coman/prop-management-sub006/internal/adapters/observability"
	redisad "github.com/b-coman/prop-management-sub006/internal/adapters/redis"
	"github.com/b-coman/prop-management-sub006/internal/app"
	"github.com/b-coman/prop-management-sub006/internal/shared"
	mysqlrepo "github.com/b-coman/prop-management-sub006/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	fetcher := ical.New(cfg.FeedRPS)

	cal := app.NewCalendarService(repo, repo, repo, repo, cache, repo, cfg.CacheTTL)
	mut := app.NewMutationService(repo, repo, repo)
	sync := app.NewSyncService(repo, repo, fetcher, repo)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Cal: cal, Mut: mut, Sync: sync})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
