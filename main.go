package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/unlimited-server/internal/config"
	"github.com/robalobadob/wordle/apps/unlimited-server/internal/daily"
	"github.com/robalobadob/wordle/apps/unlimited-server/internal/httpserver"
	"github.com/robalobadob/wordle/apps/unlimited-server/internal/store"
	"github.com/robalobadob/wordle/apps/unlimited-server/internal/words"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(cfg.Logging)

	src, err := words.Load(words.LoadOptions{
		AnswersFile: cfg.Words.AnswersFile,
		AllowedFile: cfg.Words.AllowedFile,
		Width:       words.DefaultWidth,
		Calendar:    daily.NewCalendar(cfg.Words.Epoch, cfg.Words.Location),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load word lists")
	}
	answers, allowed := src.Stats()
	log.Info().Int("answers", answers).Int("allowed", allowed).Msg("word lists loaded")

	st, closeStore, err := openStore(cfg.Server.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Server.DatabasePath).Msg("failed to open record store")
	}
	defer closeStore()

	srv, err := httpserver.New(cfg, src, st)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("port", cfg.Server.Port).
		Str("scoring", string(cfg.Game.Scoring)).
		Int("rows", cfg.Game.Rows).
		Msg("starting unlimited-server")
	if err := srv.Start(ctx, ":"+cfg.Server.Port); err != nil {
		log.Error().Err(err).Msg("server exited")
		return
	}
	log.Info().Msg("server stopped")
}

// setupLogging applies the global zerolog level and output format.
func setupLogging(c config.LoggingConfig) {
	if lvl, err := zerolog.ParseLevel(c.Level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if c.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// openStore returns the SQLite store when path is set, otherwise memory.
func openStore(path string) (store.Store, func(), error) {
	if path == "" {
		log.Warn().Msg("DATABASE_PATH not set, records are kept in memory")
		return store.NewMemoryStore(), func() {}, nil
	}
	db, err := store.OpenSQLite(path)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = db.Close() }, nil
}
