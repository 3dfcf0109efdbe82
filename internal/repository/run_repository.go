package repository

import (
	"context"

	"github.com/andresuchdata/reorder-forecast/internal/domain"
)

// RunRepository keeps an audit trail of forecast runs. Records are write-only
// from the pipeline's point of view.
type RunRepository interface {
	SaveRun(ctx context.Context, run *domain.RunRecord) error
	RecentRuns(ctx context.Context, limit int) ([]*domain.RunRecord, error)
}

type noopRunRepository struct{}

// NewNoopRunRepository is used when no database is configured.
func NewNoopRunRepository() RunRepository {
	return noopRunRepository{}
}

func (noopRunRepository) SaveRun(ctx context.Context, run *domain.RunRecord) error {
	return nil
}

func (noopRunRepository) RecentRuns(ctx context.Context, limit int) ([]*domain.RunRecord, error) {
	return []*domain.RunRecord{}, nil
}
