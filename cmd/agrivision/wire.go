package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/atinyakov/AgriVision/internal/analysis"
	"github.com/atinyakov/AgriVision/internal/app"
	"github.com/atinyakov/AgriVision/internal/client/storage"
	"github.com/atinyakov/AgriVision/internal/config"
	"github.com/atinyakov/AgriVision/internal/db"
	"github.com/atinyakov/AgriVision/internal/kv"
	"github.com/atinyakov/AgriVision/internal/logger"
	"github.com/atinyakov/AgriVision/internal/repository"
	"github.com/atinyakov/AgriVision/internal/service"
	"github.com/atinyakov/AgriVision/internal/weather"
	"go.uber.org/zap"
)

// newLogger initializes structured logging at the configured level.
func newLogger(level string) (*zap.Logger, error) {
	log := logger.New()
	if err := log.Init(level); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log.Log, nil
}

// openStore opens the configured key/value backend. The returned func
// releases it.
func openStore(opts config.Options, log *zap.Logger) (kv.Store, func() error, error) {
	noop := func() error { return nil }
	if opts.Store == config.StoreMemory {
		log.Warn("using in-memory store, nothing will be saved")
		return kv.NewMemoryStore(), noop, nil
	}

	path, err := opts.StorePath()
	if err != nil {
		return nil, nil, err
	}

	switch opts.Store {
	case config.StoreSQLite:
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
		sqlDB, err := db.InitSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		log.Info("opened sqlite store", zap.String("path", path))
		return repository.NewSQLKVRepository(sqlDB), sqlDB.Close, nil
	default:
		fs, err := kv.OpenFileStore(path, log.Named("store"))
		if err != nil {
			return nil, nil, err
		}
		log.Info("opened file store", zap.String("path", path))
		return fs, noop, nil
	}
}

// buildApp wires the store, services and flow controller.
func buildApp(ctx context.Context, opts config.Options, log *zap.Logger) (*app.Controller, func() error, error) {
	store, closeStore, err := openStore(opts, log)
	if err != nil {
		return nil, nil, err
	}
	ls := storage.Open(ctx, store, log.Named("storage"))

	var gen analysis.Generator
	if opts.APIKey != "" {
		g, err := analysis.NewGeminiGenerator(ctx, opts.APIKey, opts.Model)
		if err != nil {
			_ = closeStore()
			return nil, nil, err
		}
		gen = g
		log.Info("gemini configured", zap.String("model", g.Model()))
	} else {
		log.Warn("GEMINI_API_KEY not set, serving demo results")
	}
	ac := analysis.New(gen, log.Named("analysis"))

	home := service.NewHomeService(
		weather.NewStaticLocator(opts.Lat, opts.Lon),
		weather.NewOpenMeteo(nil),
		weather.NewNominatim(nil),
		ac,
		log.Named("home"),
	)
	c := app.New(ctx, ls,
		service.NewAuthService(ls, log.Named("auth")),
		service.NewScanService(ac, ls, log.Named("scan")),
		home,
		log.Named("app"),
	)
	return c, closeStore, nil
}
