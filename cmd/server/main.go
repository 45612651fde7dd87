package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/greenroom-live/greenroom/internal/adapters/http"
	wsignal "github.com/greenroom-live/greenroom/internal/adapters/signal"
	"github.com/greenroom-live/greenroom/internal/app"
	"github.com/greenroom-live/greenroom/internal/auth"
	"github.com/greenroom-live/greenroom/internal/config"
	"github.com/greenroom-live/greenroom/internal/proctor"
	"github.com/greenroom-live/greenroom/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	var db store.Store
	if cfg.DataDir == "" {
		db = store.NewMemory()
		log.Warn().Msg("no data_dir configured, using in-memory store")
	} else {
		badgerDB, err := store.OpenBadger(cfg.DataDir)
		if err != nil {
			log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("failed to open store")
		}
		db = badgerDB
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("store close")
		}
	}()

	tokens := auth.NewTokenManager(cfg.Secret)
	authSvc := auth.NewService(db, tokens)
	if cfg.Seed {
		if err := authSvc.Seed(ctx); err != nil {
			log.Error().Err(err).Msg("seed users")
		}
	}

	tasks, err := app.NewTasks(cfg.TaskWorkers)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create task pool")
	}
	defer tasks.Release()

	reg := app.NewRegistry()
	ctl := app.NewController(reg, db, tasks)
	relay := app.NewRelay(ctl)
	hub := wsignal.NewHub(ctl, relay, cfg)
	ctl.Bind(hub)

	r := router.SetupRouter(ctx, router.Deps{
		Cfg:     cfg,
		Auth:    authSvc,
		Ctl:     ctl,
		Proctor: proctor.NewService(db),
		Hub:     hub,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("greenroom server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
