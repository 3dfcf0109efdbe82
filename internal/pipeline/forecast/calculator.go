package forecast

import (
	"github.com/shopspring/decimal"

	"github.com/andresuchdata/reorder-forecast/internal/domain"
)

// DefaultBufferPct is the safety margin added on top of the peak month.
const DefaultBufferPct = 0.15

var (
	alertVelocityDays = decimal.NewFromInt(12)
	alertPeakDivisor  = decimal.NewFromInt(10)
)

// ReorderCalculator turns aggregated sales and stock into order recommendations.
type ReorderCalculator struct {
	buffer decimal.Decimal
}

// NewReorderCalculator creates a calculator with the given buffer fraction (0.15 = 15%).
// Negative buffers are treated as zero.
func NewReorderCalculator(bufferPct float64) *ReorderCalculator {
	buffer := decimal.NewFromFloat(bufferPct)
	if buffer.IsNegative() {
		buffer = decimal.Zero
	}
	return &ReorderCalculator{buffer: buffer}
}

// ReorderQty = max(0, ceil(monthlyMax × (1 + buffer) − onHand))
func (rc *ReorderCalculator) ReorderQty(monthlyMax, onHand int) int {
	target := decimal.NewFromInt(int64(monthlyMax)).Mul(decimal.NewFromInt(1).Add(rc.buffer))
	needed := target.Sub(decimal.NewFromInt(int64(onHand))).Ceil()
	if needed.IsNegative() {
		return 0
	}
	return int(needed.IntPart())
}

// AlertScore = ceil(dailyAverage × 12 + monthlyMax / 10)
func (rc *ReorderCalculator) AlertScore(dailyAverage float64, monthlyMax int) int {
	velocity := decimal.NewFromFloat(dailyAverage).Mul(alertVelocityDays)
	peak := decimal.NewFromInt(int64(monthlyMax)).Div(alertPeakDivisor)
	score := velocity.Add(peak).Ceil()
	if score.IsNegative() {
		return 0
	}
	return int(score.IntPart())
}

// Calculate builds the full per-item result from already aggregated inputs.
func (rc *ReorderCalculator) Calculate(id string, daily float64, monthly [3]int, monthlyMax, onHand int) domain.ForecastResult {
	if onHand < 0 {
		onHand = 0
	}

	return domain.ForecastResult{
		VariationID:   id,
		DailyAverage:  daily,
		MonthlyTotals: monthly,
		MonthlyMax:    monthlyMax,
		TotalSold:     monthly[0] + monthly[1] + monthly[2],
		OnHand:        onHand,
		ReorderQty:    rc.ReorderQty(monthlyMax, onHand),
		AlertScore:    rc.AlertScore(daily, monthlyMax),
	}
}
