// Package app wires configuration into the runnable forecast components.
package app

import (
	"errors"
	"fmt"

	"github.com/andresuchdata/reorder-forecast/internal/cache"
	"github.com/andresuchdata/reorder-forecast/internal/config"
	"github.com/andresuchdata/reorder-forecast/internal/pipeline"
	"github.com/andresuchdata/reorder-forecast/internal/repository"
	"github.com/andresuchdata/reorder-forecast/internal/repository/postgres"
	"github.com/andresuchdata/reorder-forecast/internal/service"
	"github.com/andresuchdata/reorder-forecast/internal/square"
	"github.com/andresuchdata/reorder-forecast/internal/storage"
	"github.com/andresuchdata/reorder-forecast/pkg/logger"
)

type App struct {
	Forecasts *service.ForecastService
	// Storage is nil when report upload is disabled.
	Storage storage.ObjectStorage

	closers []func() error
}

// New builds the forecast service graph. Optional backends that fail to
// start are logged and replaced with no-op implementations.
func New(cfg *config.Config) (*App, error) {
	log := logger.Component("app")

	client, err := square.NewClient(cfg.Square)
	if err != nil {
		return nil, fmt.Errorf("square client: %w", err)
	}

	orchestrator := pipeline.NewOrchestrator(client, pipeline.Config{
		BufferPct: cfg.Forecast.BufferPct,
		Clock:     pipeline.DefaultConfig().Clock,
	})

	a := &App{}

	categoryCache, err := cache.NewCategoryCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("category cache unavailable, continuing without cache")
		categoryCache = cache.NewNoopCategoryCache()
	}

	runs := repository.NewNoopRunRepository()
	if cfg.Database.Enabled {
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			log.Warn().Err(err).Msg("database unavailable, run audit disabled")
		} else {
			runs = postgres.NewRunRepository(db)
			a.closers = append(a.closers, db.Close)
		}
	}

	if cfg.Storage.Enabled {
		s3, err := storage.NewS3Client(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("report storage: %w", err)
		}
		a.Storage = s3
	}

	a.Forecasts = service.NewForecastService(orchestrator, client, categoryCache, runs, client.LocationID())
	return a, nil
}

// Close releases every backend opened by New.
func (a *App) Close() error {
	var errs []error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
