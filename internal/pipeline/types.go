package pipeline

import (
	"context"
	"time"

	"github.com/andresuchdata/reorder-forecast/internal/domain"
	"github.com/andresuchdata/reorder-forecast/internal/pipeline/forecast"
)

// Fetcher is the remote side of a forecast run. Each call reports its own
// outcome instead of failing; partial data is always usable.
type Fetcher interface {
	FetchItems(ctx context.Context, categoryIDs []string) (map[string]domain.ItemVariation, domain.StageReport)
	FetchCategories(ctx context.Context) (map[string]string, domain.StageReport)
	FetchInventory(ctx context.Context, ids []string) (domain.InventoryCounts, domain.StageReport)
	FetchSales(ctx context.Context, start, end time.Time) (domain.SalesLedger, domain.StageReport)
}

// Config holds the knobs of a forecast run.
type Config struct {
	BufferPct float64
	Clock     forecast.Clock
}

// DefaultConfig returns the standard 15% buffer against the wall clock.
func DefaultConfig() Config {
	return Config{
		BufferPct: forecast.DefaultBufferPct,
		Clock:     forecast.SystemClock,
	}
}
