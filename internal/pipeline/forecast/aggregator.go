package forecast

import (
	"time"

	"github.com/andresuchdata/reorder-forecast/internal/domain"
)

// DailyAverages divides each item's total sold inside the window by the
// number of calendar days the window spans.
func DailyAverages(ledger domain.SalesLedger, window domain.Window) map[string]float64 {
	days := window.Days()
	out := make(map[string]float64, len(ledger))
	for id, byTime := range ledger {
		if days == 0 {
			out[id] = 0
			continue
		}
		total := 0
		for t, qty := range byTime {
			if !t.Before(window.Start) && !t.After(window.End) {
				total += qty
			}
		}
		out[id] = float64(total) / float64(days)
	}
	return out
}

// MonthlyTotals buckets each item's sales into the window's three months, oldest first.
func MonthlyTotals(ledger domain.SalesLedger, window domain.Window) map[string][3]int {
	out := make(map[string][3]int, len(ledger))
	for id, byTime := range ledger {
		out[id] = bucket(byTime, window)
	}
	return out
}

// MonthlyMaximums returns the largest of each item's three monthly totals.
func MonthlyMaximums(ledger domain.SalesLedger, window domain.Window) map[string]int {
	out := make(map[string]int, len(ledger))
	for id, byTime := range ledger {
		out[id] = maxOf(bucket(byTime, window))
	}
	return out
}

func bucket(byTime map[time.Time]int, window domain.Window) [3]int {
	var totals [3]int
	for t, qty := range byTime {
		for i, m := range window.Months {
			if m.Contains(t) {
				totals[i] += qty
				break
			}
		}
	}
	return totals
}

func maxOf(totals [3]int) int {
	m := totals[0]
	for _, v := range totals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
