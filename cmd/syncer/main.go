package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/b-coman/prop-management-sub006/internal/adapters/ical"
	"github.com/b-coman/prop-management-sub006/internal/adapters/observability"
	"github.com/b-coman/prop-management-sub006/internal/app"
	"github.com/b-coman/prop-management-sub006/internal/domain"
	"github.com/b-coman/prop-management-sub006/internal/shared"
	mysqlrepo "github.com/b-coman/prop-management-sub006/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("schedule", cfg.SyncSchedule).
		Int("workers", cfg.SyncWorkers).
		Bool("once", cfg.SyncOnce).
		Msg("syncer starting")

	observability.Serve()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	fetcher := ical.New(cfg.FeedRPS)
	svc := app.NewSyncService(repo, repo, fetcher, repo)

	// Scheduled runs act as the system, not as any operator.
	ctx := domain.WithActor(context.Background(), domain.SystemActor)

	if cfg.SyncOnce {
		syncAll(ctx, svc, repo, cfg.SyncWorkers)
		log.Info().Msg("single sync pass completed")
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.SyncSchedule, func() {
		syncAll(ctx, svc, repo, cfg.SyncWorkers)
	}); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.SyncSchedule).Msg("invalid sync schedule")
	}
	c.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down")
	<-c.Stop().Done()
}

// syncAll fans one sync pass out over every enabled feed, at most `workers`
// in flight. Per-feed failures are logged and recorded on the feed; they
// never abort the pass.
func syncAll(ctx context.Context, svc *app.SyncService, feeds domain.FeedStore, workers int) {
	list, err := feeds.ListEnabledFeeds(ctx)
	if err != nil {
		log.Error().Err(err).Msg("list enabled feeds failed")
		return
	}
	if len(list) == 0 {
		log.Info().Msg("no enabled feeds")
		return
	}

	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup

	for _, f := range list {
		f := f

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Error().Err(err).Msg("semaphore acquire failed")
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			res, err := svc.SyncFeed(ctx, f.ID)
			if err != nil {
				observability.ObserveFeedSync("error")
				log.Warn().Str("feed", f.ID).Str("property", f.PropertyID).Err(err).Msg("sync failed")
				return
			}
			observability.ObserveFeedSync("success")
			log.Info().
				Str("feed", f.ID).
				Str("property", f.PropertyID).
				Int("events", res.EventsFound).
				Int("blocked", res.DatesBlocked).
				Int("released", res.DatesReleased).
				Msg("sync ok")
		}()
	}

	wg.Wait()
	log.Info().Int("feeds", len(list)).Msg("sync pass completed")
}
