package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/reorder-forecast/internal/domain"
	"github.com/andresuchdata/reorder-forecast/internal/pipeline/forecast"
)

// Orchestrator sequences one forecast run: items and categories, then
// inventory and sales, then aggregation and forecasting.
type Orchestrator struct {
	fetcher Fetcher
	calc    *forecast.ReorderCalculator
	clock   forecast.Clock
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(fetcher Fetcher, cfg Config) *Orchestrator {
	clock := cfg.Clock
	if clock == nil {
		clock = forecast.SystemClock
	}
	return &Orchestrator{
		fetcher: fetcher,
		calc:    forecast.NewReorderCalculator(cfg.BufferPct),
		clock:   clock,
	}
}

// Run produces the forecast bundle for the selected categories. Remote
// failures degrade the bundle instead of failing the run; only context
// cancellation is returned as an error.
func (o *Orchestrator) Run(ctx context.Context, categoryIDs []string) (*domain.ForecastBundle, error) {
	begin := time.Now()
	started := o.clock.Now()
	selection := normalizeSelection(categoryIDs)

	// Items and categories are independent of each other.
	var (
		items      map[string]domain.ItemVariation
		categories map[string]string
		itemsRep   domain.StageReport
		catsRep    domain.StageReport
	)
	g, gctx := errgroup.WithContext(ctx)
	goStage(g, domain.StageItems, func() {
		items, itemsRep = o.fetcher.FetchItems(gctx, selection)
	})
	goStage(g, domain.StageCategories, func() {
		categories, catsRep = o.fetcher.FetchCategories(gctx)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("forecast run cancelled: %w", err)
	}

	if len(items) == 0 {
		log.Warn().Strs("category_ids", selection).Msg("pipeline: no items found in selected categories")
		bundle := domain.NewEmptyBundle(started)
		if categories != nil {
			bundle.Categories = categories
		}
		bundle.Stages = append(bundle.Stages, itemsRep, catsRep)
		return bundle, nil
	}

	window := forecast.WindowFrom(o.clock)
	ids := sortedKeys(items)

	var (
		inventory domain.InventoryCounts
		ledger    domain.SalesLedger
		invRep    domain.StageReport
		salesRep  domain.StageReport
	)
	g, gctx = errgroup.WithContext(ctx)
	goStage(g, domain.StageInventory, func() {
		inventory, invRep = o.fetcher.FetchInventory(gctx, ids)
	})
	goStage(g, domain.StageSales, func() {
		ledger, salesRep = o.fetcher.FetchSales(gctx, window.Start, window.End)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("forecast run cancelled: %w", err)
	}

	bundle := o.assemble(started, window, items, categories, inventory, ledger)
	bundle.Stages = []domain.StageReport{itemsRep, catsRep, invRep, salesRep}

	log.Info().
		Int("items", len(items)).
		Int("categories", len(categories)).
		Int("stocked", len(inventory)).
		Int("sold", len(ledger)).
		Str("window", window.Start.Format("2006-01-02")+".."+window.End.Format("2006-01-02")).
		Dur("elapsed", time.Since(begin)).
		Msg("pipeline: forecast run completed")

	return bundle, nil
}

func (o *Orchestrator) assemble(
	started time.Time,
	window domain.Window,
	items map[string]domain.ItemVariation,
	categories map[string]string,
	inventory domain.InventoryCounts,
	ledger domain.SalesLedger,
) *domain.ForecastBundle {
	if categories == nil {
		categories = map[string]string{}
	}
	if inventory == nil {
		inventory = domain.InventoryCounts{}
	}
	if ledger == nil {
		ledger = domain.SalesLedger{}
	}

	daily := forecast.DailyAverages(ledger, window)
	monthly := forecast.MonthlyTotals(ledger, window)
	peaks := forecast.MonthlyMaximums(ledger, window)

	bundle := domain.NewEmptyBundle(started)
	bundle.Empty = false
	bundle.Window = window
	bundle.Items = items
	bundle.Categories = categories

	// Items without ledger entries get zeroed aggregates rather than gaps.
	for id := range items {
		result := o.calc.Calculate(id, daily[id], monthly[id], peaks[id], inventory.OnHand(id))

		bundle.Results[id] = result
		bundle.Inventory[id] = result.OnHand
		bundle.SalesTotals[id] = ledger.Total(id)
		bundle.DailyAverage[id] = result.DailyAverage
		bundle.Monthly[id] = result.MonthlyTotals
		bundle.MonthlyMax[id] = result.MonthlyMax
		bundle.Reorder[id] = result.ReorderQty
	}

	return bundle
}

// goStage runs fn on g. A panic inside fn is recovered on the stage's own
// goroutine and returned from g.Wait as an error.
func goStage(g *errgroup.Group, stage string, fn func()) {
	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("stage", stage).Interface("panic", r).Msg("pipeline: stage panicked")
				err = fmt.Errorf("%s stage panic: %v", stage, r)
			}
		}()
		fn()
		return nil
	})
}

// normalizeSelection trims, de-duplicates and sorts the category ids.
func normalizeSelection(categoryIDs []string) []string {
	seen := make(map[string]struct{}, len(categoryIDs))
	out := make([]string, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
