package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/reorder-forecast/internal/config"
	"github.com/andresuchdata/reorder-forecast/internal/domain"
	"github.com/andresuchdata/reorder-forecast/internal/pipeline/forecast"
	"github.com/andresuchdata/reorder-forecast/internal/square"
)

var april2024 = forecast.ClockFunc(func() time.Time {
	return time.Date(2024, time.April, 10, 9, 0, 0, 0, time.UTC)
})

type fakeFetcher struct {
	mu          sync.Mutex
	items       map[string]domain.ItemVariation
	categories  map[string]string
	inventory   domain.InventoryCounts
	ledger      domain.SalesLedger
	gotSelected []string
	gotIDs      []string
	gotStart    time.Time
	gotEnd      time.Time
	calls       []string
}

func (f *fakeFetcher) record(stage string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, stage)
}

func (f *fakeFetcher) FetchItems(_ context.Context, ids []string) (map[string]domain.ItemVariation, domain.StageReport) {
	f.record(domain.StageItems)
	f.gotSelected = ids
	return f.items, domain.StageReport{Stage: domain.StageItems, Records: len(f.items)}
}

func (f *fakeFetcher) FetchCategories(context.Context) (map[string]string, domain.StageReport) {
	f.record(domain.StageCategories)
	return f.categories, domain.StageReport{Stage: domain.StageCategories}
}

func (f *fakeFetcher) FetchInventory(_ context.Context, ids []string) (domain.InventoryCounts, domain.StageReport) {
	f.record(domain.StageInventory)
	f.gotIDs = ids
	return f.inventory, domain.StageReport{Stage: domain.StageInventory}
}

func (f *fakeFetcher) FetchSales(_ context.Context, start, end time.Time) (domain.SalesLedger, domain.StageReport) {
	f.record(domain.StageSales)
	f.gotStart, f.gotEnd = start, end
	return f.ledger, domain.StageReport{Stage: domain.StageSales, Status: domain.FetchPartial}
}

func newFake() *fakeFetcher {
	ledger := domain.SalesLedger{}
	ledger.Add("X", time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC), 3)
	ledger.Add("X", time.Date(2024, time.February, 10, 12, 0, 0, 0, time.UTC), 5)
	ledger.Add("X", time.Date(2024, time.February, 20, 12, 0, 0, 0, time.UTC), 2)
	ledger.Add("X", time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC), 4)
	ledger.Add("OTHER", time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC), 9)

	return &fakeFetcher{
		items: map[string]domain.ItemVariation{
			"X": {ID: "X", ItemName: "Latte", VariationName: "Large", CategoryID: "C1"},
			"Z": {ID: "Z", ItemName: "Latte", VariationName: "Small", CategoryID: "C1"},
		},
		categories: map[string]string{"C1": "Coffee"},
		inventory:  domain.InventoryCounts{"X": 5, "Z": 8},
		ledger:     ledger,
	}
}

func TestRunAssemblesBundle(t *testing.T) {
	f := newFake()
	o := NewOrchestrator(f, Config{BufferPct: 0.15, Clock: april2024})

	bundle, err := o.Run(context.Background(), []string{" C1 ", "C1", ""})
	require.NoError(t, err)

	assert.False(t, bundle.Empty)
	assert.Equal(t, []string{"C1"}, f.gotSelected)
	assert.Equal(t, []string{"X", "Z"}, f.gotIDs)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), f.gotStart)
	assert.Equal(t, bundle.Window.End, f.gotEnd)

	x := bundle.Result("X")
	assert.Equal(t, [3]int{3, 7, 4}, x.MonthlyTotals)
	assert.Equal(t, 7, x.MonthlyMax)
	assert.Equal(t, 4, x.ReorderQty)
	assert.Equal(t, 3, x.AlertScore)
	assert.InDelta(t, 14.0/91.0, x.DailyAverage, 1e-12)
	assert.Equal(t, 14, bundle.SalesTotals["X"])
	assert.Equal(t, 4, bundle.Reorder["X"])

	z := bundle.Result("Z")
	assert.Equal(t, [3]int{}, z.MonthlyTotals)
	assert.Zero(t, z.ReorderQty)
	assert.Zero(t, bundle.DailyAverage["Z"])
	assert.Contains(t, bundle.Monthly, "Z")

	assert.NotContains(t, bundle.Results, "OTHER", "results are scoped to the selected items")
	assert.Equal(t, "Coffee", bundle.CategoryName(bundle.Items["X"]))
	require.Len(t, bundle.Stages, 4)
	assert.Equal(t, domain.StageSales, bundle.Stages[3].Stage)
}

func TestRunShortCircuitsOnNoItems(t *testing.T) {
	f := newFake()
	f.items = map[string]domain.ItemVariation{}
	o := NewOrchestrator(f, Config{BufferPct: 0.15, Clock: april2024})

	bundle, err := o.Run(context.Background(), []string{"EMPTY"})
	require.NoError(t, err)

	assert.True(t, bundle.Empty)
	assert.Empty(t, bundle.Items)
	assert.Empty(t, bundle.Results)
	assert.NotContains(t, f.calls, domain.StageInventory)
	assert.NotContains(t, f.calls, domain.StageSales)
}

func TestRunEmptySelectionYieldsEmptyBundle(t *testing.T) {
	f := newFake()
	f.items = nil
	o := NewOrchestrator(f, Config{BufferPct: 0.15, Clock: april2024})

	bundle, err := o.Run(context.Background(), []string{" ", ""})
	require.NoError(t, err)

	assert.True(t, bundle.Empty)
	assert.Empty(t, f.gotSelected)
	assert.Equal(t, "Coffee", bundle.Categories["C1"])
	require.Len(t, bundle.Stages, 2)
}

// brokenItems writes to a nil map like a decoder bug would.
type brokenItems struct{ *fakeFetcher }

func (brokenItems) FetchItems(context.Context, []string) (map[string]domain.ItemVariation, domain.StageReport) {
	var items map[string]domain.ItemVariation
	items["X"] = domain.ItemVariation{ID: "X"}
	return items, domain.StageReport{}
}

type brokenSales struct{ *fakeFetcher }

func (brokenSales) FetchSales(context.Context, time.Time, time.Time) (domain.SalesLedger, domain.StageReport) {
	var report *domain.StageReport
	return nil, *report
}

func TestRunReturnsErrorWhenItemsStagePanics(t *testing.T) {
	o := NewOrchestrator(brokenItems{newFake()}, Config{BufferPct: 0.15, Clock: april2024})

	bundle, err := o.Run(context.Background(), []string{"C1"})
	assert.Nil(t, bundle)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "items stage panic")
}

func TestRunReturnsErrorWhenSalesStagePanics(t *testing.T) {
	f := newFake()
	o := NewOrchestrator(brokenSales{f}, Config{BufferPct: 0.15, Clock: april2024})

	bundle, err := o.Run(context.Background(), []string{"C1"})
	assert.Nil(t, bundle)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sales stage panic")
	assert.Contains(t, f.calls, domain.StageInventory)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewOrchestrator(newFake(), DefaultConfig()).Run(ctx, []string{"C1"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalizeSelection(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, normalizeSelection([]string{"B", " A", "B", ""}))
	assert.Empty(t, normalizeSelection(nil))
}

// End to end against a fake Connect API: one category fails on every attempt
// and the other still produces a forecast.
func TestRunAgainstSquareClient(t *testing.T) {
	var mu sync.Mutex
	calls := map[string]int{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls[r.URL.Path]++
		mu.Unlock()

		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/v2/catalog/search":
			types := body["object_types"].([]any)
			if types[0] == "CATEGORY" {
				_ = json.NewEncoder(w).Encode(map[string]any{"objects": []any{
					map[string]any{"type": "CATEGORY", "id": "GOOD", "category_data": map[string]any{"name": "Pastry"}},
				}})
				return
			}
			query := body["query"].(map[string]any)["exact_query"].(map[string]any)
			if query["attribute_value"] == "BROKEN" {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(`{}`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"objects": []any{
				map[string]any{"type": "ITEM", "id": "I1", "item_data": map[string]any{
					"name": "Croissant", "category_id": "GOOD",
					"variations": []any{map[string]any{"type": "ITEM_VARIATION", "id": "V1",
						"item_variation_data": map[string]any{"name": "Butter"}}},
				}},
			}})
		case "/v2/inventory/counts/batch-retrieve":
			_ = json.NewEncoder(w).Encode(map[string]any{"counts": []any{
				map[string]any{"catalog_object_id": "V1", "state": "IN_STOCK", "quantity": "2"},
			}})
		case "/v2/orders/search":
			_ = json.NewEncoder(w).Encode(map[string]any{"orders": []any{
				map[string]any{"id": "O1", "created_at": "2024-02-14T08:00:00Z", "line_items": []any{
					map[string]any{"catalog_object_id": "V1", "quantity": "10"},
				}},
			}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client, err := square.NewClient(config.SquareConfig{
		BaseURL:       srv.URL,
		AccessToken:   "tok",
		LocationID:    "LOC",
		RetryAttempts: 3,
		RetryWaitMin:  time.Millisecond,
		RetryWaitMax:  time.Millisecond,
	})
	require.NoError(t, err)

	bundle, err := NewOrchestrator(client, Config{BufferPct: 0.15, Clock: april2024}).Run(context.Background(), []string{"BROKEN", "GOOD"})
	require.NoError(t, err)

	require.Len(t, bundle.Items, 1)
	r := bundle.Result("V1")
	assert.Equal(t, [3]int{0, 10, 0}, r.MonthlyTotals)
	assert.Equal(t, 2, r.OnHand)
	// ceil(10 × 1.15 − 2) = ceil(9.5)
	assert.Equal(t, 10, r.ReorderQty)
	assert.Equal(t, domain.FetchPartial, bundle.Stages[0].Status)
	assert.Equal(t, "Pastry", bundle.CategoryName(bundle.Items["V1"]))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, calls["/v2/catalog/search"], "3 attempts for BROKEN, 1 for GOOD, 1 for categories")
}
