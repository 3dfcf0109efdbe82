// internal/domain/models.go
package domain

import "time"

// ItemVariation is one sellable variation of a catalog item.
type ItemVariation struct {
	ID                  string `json:"id"`
	ItemID              string `json:"item_id"`
	ItemName            string `json:"item_name"`
	VariationName       string `json:"variation_name"`
	CategoryID          string `json:"category_id,omitempty"`
	ReportingCategoryID string `json:"reporting_category_id,omitempty"`
}

// DisplayName renders the name the way the storefront shows it: "Item (Variation)".
func (v ItemVariation) DisplayName() string {
	return v.ItemName + " (" + v.VariationName + ")"
}

// OwningCategoryID returns the primary category, falling back to the reporting category.
func (v ItemVariation) OwningCategoryID() string {
	if v.CategoryID != "" {
		return v.CategoryID
	}
	return v.ReportingCategoryID
}

// Category is a merchant defined grouping of catalog items.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// InventoryCounts maps variation id to on-hand quantity in the IN_STOCK state.
// A missing id means zero stock.
type InventoryCounts map[string]int

// OnHand returns the quantity for id, zero when absent.
func (c InventoryCounts) OnHand(id string) int {
	return c[id]
}

// SalesLedger maps variation id to the quantity sold at each order timestamp.
type SalesLedger map[string]map[time.Time]int

// Add accumulates qty for id at t. Non-positive quantities are ignored.
func (l SalesLedger) Add(id string, t time.Time, qty int) {
	if qty <= 0 {
		return
	}
	byTime, ok := l[id]
	if !ok {
		byTime = make(map[time.Time]int)
		l[id] = byTime
	}
	byTime[t.UTC()] += qty
}

// Total returns the sum of all quantities recorded for id.
func (l SalesLedger) Total(id string) int {
	total := 0
	for _, qty := range l[id] {
		total += qty
	}
	return total
}

// MonthRange is one whole calendar month, both bounds inclusive.
type MonthRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls within the inclusive bounds.
func (m MonthRange) Contains(t time.Time) bool {
	return !t.Before(m.Start) && !t.After(m.End)
}

// Label renders the month as "January 2024".
func (m MonthRange) Label() string {
	return m.Start.Format("January 2006")
}

// Window is the trailing three completed months, oldest first.
type Window struct {
	Start  time.Time     `json:"start"`
	End    time.Time     `json:"end"`
	Months [3]MonthRange `json:"months"`
}

// Days is the number of calendar days covered by the window, both ends included.
func (w Window) Days() int {
	if w.End.Before(w.Start) {
		return 0
	}
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// Labels returns the month labels oldest first.
func (w Window) Labels() [3]string {
	var labels [3]string
	for i, m := range w.Months {
		labels[i] = m.Label()
	}
	return labels
}

// ForecastResult holds the aggregates and forecast for one variation.
type ForecastResult struct {
	VariationID   string  `json:"variation_id"`
	DailyAverage  float64 `json:"daily_average"`
	MonthlyTotals [3]int  `json:"monthly_totals"`
	MonthlyMax    int     `json:"monthly_max"`
	TotalSold     int     `json:"total_sold"`
	OnHand        int     `json:"on_hand"`
	ReorderQty    int     `json:"reorder_qty"`
	AlertScore    int     `json:"alert_score"`
}

// ForecastBundle is the consolidated, read-only output of one pipeline run.
type ForecastBundle struct {
	GeneratedAt  time.Time                 `json:"generated_at"`
	Window       Window                    `json:"window"`
	Items        map[string]ItemVariation  `json:"items"`
	Categories   map[string]string         `json:"categories"`
	Inventory    InventoryCounts           `json:"inventory"`
	SalesTotals  map[string]int            `json:"sales_totals"`
	DailyAverage map[string]float64        `json:"daily_average"`
	Monthly      map[string][3]int         `json:"monthly"`
	MonthlyMax   map[string]int            `json:"monthly_max"`
	Reorder      map[string]int            `json:"reorder"`
	Results      map[string]ForecastResult `json:"results"`
	Stages       []StageReport             `json:"stages"`
	Empty        bool                      `json:"empty"`
}

// NewEmptyBundle returns a bundle with every lookup initialised and empty.
func NewEmptyBundle(generatedAt time.Time) *ForecastBundle {
	return &ForecastBundle{
		GeneratedAt:  generatedAt,
		Items:        map[string]ItemVariation{},
		Categories:   map[string]string{},
		Inventory:    InventoryCounts{},
		SalesTotals:  map[string]int{},
		DailyAverage: map[string]float64{},
		Monthly:      map[string][3]int{},
		MonthlyMax:   map[string]int{},
		Reorder:      map[string]int{},
		Results:      map[string]ForecastResult{},
		Stages:       []StageReport{},
		Empty:        true,
	}
}

// Result returns the forecast for id, or a zero forecast when the id is unknown.
func (b *ForecastBundle) Result(id string) ForecastResult {
	if r, ok := b.Results[id]; ok {
		return r
	}
	return ForecastResult{VariationID: id}
}

// CategoryName resolves the display name for a variation's owning category.
func (b *ForecastBundle) CategoryName(v ItemVariation) string {
	if name, ok := b.Categories[v.OwningCategoryID()]; ok && name != "" {
		return name
	}
	return UnknownCategory
}

// UnknownCategory is shown when a variation's category is missing from the lookup.
const UnknownCategory = "Unknown Category"

// RunRecord is the audit entry written after each pipeline run.
type RunRecord struct {
	ID          int64         `json:"id" db:"id"`
	CategoryIDs []string      `json:"category_ids" db:"category_ids"`
	ItemCount   int           `json:"item_count" db:"item_count"`
	Status      string        `json:"status" db:"status"`
	Stages      []StageReport `json:"stages" db:"-"`
	StartedAt   time.Time     `json:"started_at" db:"started_at"`
	CompletedAt time.Time     `json:"completed_at" db:"completed_at"`
	Error       string        `json:"error,omitempty" db:"error_message"`
}
