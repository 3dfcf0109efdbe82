package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/reorder-forecast/internal/cache"
	"github.com/andresuchdata/reorder-forecast/internal/domain"
	"github.com/andresuchdata/reorder-forecast/internal/repository"
	"github.com/rs/zerolog/log"
)

var (
	// ErrForecastFailed is the single failure notice surfaced to callers.
	ErrForecastFailed = errors.New("failed to fetch and display forecast data")
	// ErrCategoriesUnavailable means the category listing could not be fetched.
	ErrCategoriesUnavailable = errors.New("failed to fetch categories")
)

// Runner executes one forecast pipeline run.
type Runner interface {
	Run(ctx context.Context, categoryIDs []string) (*domain.ForecastBundle, error)
}

// CategoryLister lists the categories available for selection.
type CategoryLister interface {
	ListCategories(ctx context.Context) ([]domain.Category, domain.StageReport)
}

type ForecastService struct {
	runner     Runner
	lister     CategoryLister
	cache      cache.CategoryCache
	runs       repository.RunRepository
	locationID string
	now        func() time.Time
}

func NewForecastService(runner Runner, lister CategoryLister, cacheImpl cache.CategoryCache, runs repository.RunRepository, locationID string) *ForecastService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopCategoryCache()
	}
	if runs == nil {
		runs = repository.NewNoopRunRepository()
	}
	return &ForecastService{
		runner:     runner,
		lister:     lister,
		cache:      cacheImpl,
		runs:       runs,
		locationID: locationID,
		now:        time.Now,
	}
}

// Run executes a forecast for the selected categories. An empty selection
// yields an empty bundle. Any unexpected error, including a panic inside the
// pipeline, is logged and reported as ErrForecastFailed.
func (s *ForecastService) Run(ctx context.Context, categoryIDs []string) (bundle *domain.ForecastBundle, err error) {
	record := &domain.RunRecord{
		CategoryIDs: append([]string(nil), categoryIDs...),
		StartedAt:   s.now(),
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("forecast: recovered from panic")
			bundle, err = nil, ErrForecastFailed
			record.Error = fmt.Sprint(r)
		}
		s.saveRun(ctx, record, bundle, err)
	}()

	bundle, err = s.runner.Run(ctx, categoryIDs)
	if err != nil {
		log.Error().Err(err).Strs("category_ids", categoryIDs).Msg("forecast: failed to fetch and display data")
		record.Error = err.Error()
		return nil, ErrForecastFailed
	}

	if missing := vanishedCategories(bundle, categoryIDs); len(missing) > 0 {
		log.Info().Strs("category_ids", missing).Msg("forecast: selected categories no longer exist, dropping cached listing")
		if err := s.cache.Invalidate(ctx, s.locationID); err != nil {
			log.Warn().Err(err).Msg("forecast: cache invalidate failed")
		}
	}
	return bundle, nil
}

// vanishedCategories returns the selected ids absent from a successfully
// fetched category lookup.
func vanishedCategories(bundle *domain.ForecastBundle, categoryIDs []string) []string {
	if bundle == nil {
		return nil
	}
	fetched := false
	for _, stage := range bundle.Stages {
		if stage.Stage == domain.StageCategories && stage.Status == domain.FetchSuccess {
			fetched = true
		}
	}
	if !fetched {
		return nil
	}

	var missing []string
	for _, id := range categoryIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := bundle.Categories[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func (s *ForecastService) saveRun(ctx context.Context, record *domain.RunRecord, bundle *domain.ForecastBundle, err error) {
	record.CompletedAt = s.now()
	switch {
	case err != nil:
		record.Status = "failed"
	case bundle.Empty:
		record.Status = "empty"
	default:
		record.Status = "completed"
	}
	if bundle != nil {
		record.ItemCount = len(bundle.Items)
		record.Stages = bundle.Stages
	}

	// The run context may already be cancelled; the audit write gets its own.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if saveErr := s.runs.SaveRun(saveCtx, record); saveErr != nil {
		log.Warn().Err(saveErr).Msg("forecast: save run record failed")
	}
}

// ListCategories returns the selectable categories sorted by name.
func (s *ForecastService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if categories, ok, err := s.cache.GetCategories(ctx, s.locationID); err == nil && ok {
		return categories, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("forecast: cache get categories failed")
	}

	categories, report := s.lister.ListCategories(ctx)
	if report.Status == domain.FetchFailed {
		return nil, fmt.Errorf("%w: %s", ErrCategoriesUnavailable, report.Error)
	}

	if err := s.cache.SetCategories(ctx, s.locationID, categories); err != nil {
		log.Warn().Err(err).Msg("forecast: cache set categories failed")
	}

	return categories, nil
}

// RecentRuns exposes the audit trail.
func (s *ForecastService) RecentRuns(ctx context.Context, limit int) ([]*domain.RunRecord, error) {
	return s.runs.RecentRuns(ctx, limit)
}
