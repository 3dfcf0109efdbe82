package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/reorder-forecast/internal/domain"
	"github.com/andresuchdata/reorder-forecast/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// RunRepository stores forecast run audit records in forecast_runs and
// forecast_run_stages.
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

var _ repository.RunRepository = (*RunRepository)(nil)

const insertRunQuery = `
	INSERT INTO forecast_runs (
		category_ids, item_count, status, started_at, completed_at, error_message
	) VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id
`

const insertStageQuery = `
	INSERT INTO forecast_run_stages (
		run_id, stage, status, requests, failed, records, error_message
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
`

// SaveRun inserts the run and its stage reports in one transaction and sets run.ID.
func (r *RunRepository) SaveRun(ctx context.Context, run *domain.RunRecord) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.QueryRowContext(ctx, insertRunQuery,
			pq.Array(run.CategoryIDs), run.ItemCount, run.Status,
			run.StartedAt, run.CompletedAt, nullIfEmpty(run.Error),
		).Scan(&run.ID)
		if err != nil {
			return fmt.Errorf("insert forecast run: %w", err)
		}

		for _, stage := range run.Stages {
			if _, err := tx.ExecContext(ctx, insertStageQuery,
				run.ID, stage.Stage, stage.Status.String(), stage.Requests,
				stage.Failed, stage.Records, nullIfEmpty(stage.Error),
			); err != nil {
				return fmt.Errorf("insert forecast run stage %s: %w", stage.Stage, err)
			}
		}
		return nil
	})
}

type runRow struct {
	ID          int64          `db:"id"`
	CategoryIDs pq.StringArray `db:"category_ids"`
	ItemCount   int            `db:"item_count"`
	Status      string         `db:"status"`
	StartedAt   time.Time      `db:"started_at"`
	CompletedAt time.Time      `db:"completed_at"`
	Error       *string        `db:"error_message"`
}

type stageRow struct {
	RunID    int64   `db:"run_id"`
	Stage    string  `db:"stage"`
	Status   string  `db:"status"`
	Requests int     `db:"requests"`
	Failed   int     `db:"failed"`
	Records  int     `db:"records"`
	Error    *string `db:"error_message"`
}

const recentRunsQuery = `
	SELECT id, category_ids, item_count, status, started_at, completed_at, error_message
	FROM forecast_runs
	ORDER BY started_at DESC
	LIMIT $1
`

const runStagesQuery = `
	SELECT run_id, stage, status, requests, failed, records, error_message
	FROM forecast_run_stages
	WHERE run_id = ANY($1)
	ORDER BY id
`

// RecentRuns returns the latest runs, newest first, with their stage reports.
func (r *RunRepository) RecentRuns(ctx context.Context, limit int) ([]*domain.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, recentRunsQuery, limit); err != nil {
		return nil, fmt.Errorf("select forecast runs: %w", err)
	}
	if len(rows) == 0 {
		return []*domain.RunRecord{}, nil
	}

	runs := make([]*domain.RunRecord, 0, len(rows))
	byID := make(map[int64]*domain.RunRecord, len(rows))
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		rec := &domain.RunRecord{
			ID:          row.ID,
			CategoryIDs: []string(row.CategoryIDs),
			ItemCount:   row.ItemCount,
			Status:      row.Status,
			StartedAt:   row.StartedAt,
			CompletedAt: row.CompletedAt,
			Stages:      []domain.StageReport{},
		}
		if row.Error != nil {
			rec.Error = *row.Error
		}
		runs = append(runs, rec)
		byID[row.ID] = rec
		ids = append(ids, row.ID)
	}

	var stages []stageRow
	if err := r.db.SelectContext(ctx, &stages, runStagesQuery, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("select forecast run stages: %w", err)
	}
	for _, st := range stages {
		rec, ok := byID[st.RunID]
		if !ok {
			continue
		}
		status, ok := domain.ParseFetchStatus(st.Status)
		if !ok {
			log.Warn().Int64("run_id", st.RunID).Str("status", st.Status).Msg("postgres: unknown stage status, reading as failed")
			status = domain.FetchFailed
		}
		report := domain.StageReport{
			Stage:    st.Stage,
			Status:   status,
			Requests: st.Requests,
			Failed:   st.Failed,
			Records:  st.Records,
		}
		if st.Error != nil {
			report.Error = *st.Error
		}
		rec.Stages = append(rec.Stages, report)
	}
	return runs, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
