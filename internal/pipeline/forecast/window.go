package forecast

import (
	"time"

	"github.com/andresuchdata/reorder-forecast/internal/domain"
)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock in UTC.
var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })

// MonthsBack is the number of completed months the window covers.
const MonthsBack = 3

// TrailingWindow returns the three most recently completed calendar months
// relative to now, oldest first. The current month is never included.
func TrailingWindow(now time.Time) domain.Window {
	now = now.UTC()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var months [MonthsBack]domain.MonthRange
	next := firstOfMonth
	for i := MonthsBack - 1; i >= 0; i-- {
		// Step back one day into the previous month, then snap to its first day.
		lastDay := next.AddDate(0, 0, -1)
		start := time.Date(lastDay.Year(), lastDay.Month(), 1, 0, 0, 0, 0, time.UTC)
		months[i] = domain.MonthRange{
			Start: start,
			End:   next.Add(-time.Nanosecond),
		}
		next = start
	}

	return domain.Window{
		Start:  months[0].Start,
		End:    months[MonthsBack-1].End,
		Months: months,
	}
}

// WindowFrom evaluates TrailingWindow against clock.
func WindowFrom(clock Clock) domain.Window {
	if clock == nil {
		clock = SystemClock
	}
	return TrailingWindow(clock.Now())
}
