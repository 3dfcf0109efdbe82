package report

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/andresuchdata/reorder-forecast/internal/domain"
)

// ForecastRow is one display line of the reorder report.
type ForecastRow struct {
	VariationID  string `json:"variation_id"`
	CategoryName string `json:"category_name"`
	ItemName     string `json:"item_name"`
	OrderNeeded  int    `json:"order_needed"`
	InStock      int    `json:"in_stock"`
	MonthSales   [3]int `json:"month_sales"`
	TotalSales   int    `json:"total_sales"`
	AvgDaily     string `json:"avg_daily_sold"`
	Alert        int    `json:"alert"`
}

// Headers returns the column titles for a window, month columns oldest first.
func Headers(window domain.Window) []string {
	labels := window.Labels()
	return []string{
		"Category Name",
		"Item Name",
		"Order Needed",
		"In Stock",
		labels[0] + " Sales",
		labels[1] + " Sales",
		labels[2] + " Sales",
		"3 Months Total Sales",
		"Avg Daily Sold",
		"Alert",
	}
}

// BuildRows turns a bundle into display rows. Items that need no reorder are
// dropped unless showAll is set. Rows are ordered by category, then item name.
func BuildRows(bundle *domain.ForecastBundle, showAll bool) []ForecastRow {
	if bundle == nil || bundle.Empty {
		return []ForecastRow{}
	}

	rows := make([]ForecastRow, 0, len(bundle.Items))
	for id, item := range bundle.Items {
		result := bundle.Result(id)
		if !showAll && result.ReorderQty <= 0 {
			continue
		}
		rows = append(rows, ForecastRow{
			VariationID:  id,
			CategoryName: bundle.CategoryName(item),
			ItemName:     item.DisplayName(),
			OrderNeeded:  result.ReorderQty,
			InStock:      result.OnHand,
			MonthSales:   result.MonthlyTotals,
			TotalSales:   result.TotalSold,
			AvgDaily:     fmt.Sprintf("%.2f", result.DailyAverage),
			Alert:        result.AlertScore,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CategoryName != rows[j].CategoryName {
			return rows[i].CategoryName < rows[j].CategoryName
		}
		if rows[i].ItemName != rows[j].ItemName {
			return rows[i].ItemName < rows[j].ItemName
		}
		return rows[i].VariationID < rows[j].VariationID
	})
	return rows
}

// Record renders the row as strings in Headers order.
func (r ForecastRow) Record() []string {
	return []string{
		r.CategoryName,
		r.ItemName,
		strconv.Itoa(r.OrderNeeded),
		strconv.Itoa(r.InStock),
		strconv.Itoa(r.MonthSales[0]),
		strconv.Itoa(r.MonthSales[1]),
		strconv.Itoa(r.MonthSales[2]),
		strconv.Itoa(r.TotalSales),
		r.AvgDaily,
		strconv.Itoa(r.Alert),
	}
}
