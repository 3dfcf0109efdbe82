package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReorderQty(t *testing.T) {
	rc := NewReorderCalculator(DefaultBufferPct)

	tests := []struct {
		name       string
		monthlyMax int
		onHand     int
		want       int
	}{
		{"rounds up the buffered peak", 7, 5, 4},
		{"exact buffer lands on an integer", 20, 0, 23},
		{"enough stock", 10, 50, 0},
		{"no sales no stock", 0, 0, 0},
		{"no sales with stock", 0, 12, 0},
		{"large peak", 100, 15, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rc.ReorderQty(tt.monthlyMax, tt.onHand))
		})
	}
}

func TestReorderQtyNeverNegative(t *testing.T) {
	rc := NewReorderCalculator(DefaultBufferPct)
	for peak := 0; peak < 60; peak++ {
		for onHand := 0; onHand < 120; onHand += 7 {
			assert.GreaterOrEqual(t, rc.ReorderQty(peak, onHand), 0)
		}
	}
}

func TestNegativeBufferClamped(t *testing.T) {
	rc := NewReorderCalculator(-0.5)
	assert.Equal(t, 10, rc.ReorderQty(10, 0))
}

func TestAlertScore(t *testing.T) {
	rc := NewReorderCalculator(DefaultBufferPct)

	assert.Equal(t, 0, rc.AlertScore(0, 0))
	// 14/91 × 12 ≈ 1.846, plus 0.7 → 3
	assert.Equal(t, 3, rc.AlertScore(14.0/91.0, 7))
	assert.Equal(t, 3, rc.AlertScore(0.25, 0))
	assert.Equal(t, 1, rc.AlertScore(0, 10))
}

func TestCalculateZeroSales(t *testing.T) {
	rc := NewReorderCalculator(DefaultBufferPct)
	got := rc.Calculate("Z", 0, [3]int{}, 0, 8)

	assert.Equal(t, "Z", got.VariationID)
	assert.Zero(t, got.DailyAverage)
	assert.Equal(t, [3]int{}, got.MonthlyTotals)
	assert.Zero(t, got.MonthlyMax)
	assert.Zero(t, got.ReorderQty)
	assert.Zero(t, got.AlertScore)
	assert.Equal(t, 8, got.OnHand)
}

func TestCalculateScenario(t *testing.T) {
	rc := NewReorderCalculator(DefaultBufferPct)
	got := rc.Calculate("X", 14.0/91.0, [3]int{3, 7, 4}, 7, 5)

	assert.Equal(t, 7, got.MonthlyMax)
	assert.Equal(t, 14, got.TotalSold)
	assert.Equal(t, 4, got.ReorderQty)
	assert.Equal(t, 3, got.AlertScore)
}
