package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

func TestTrailingWindowMidMonth(t *testing.T) {
	w := WindowFrom(fixedClock(time.Date(2024, time.April, 17, 15, 30, 0, 0, time.UTC)))

	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond), w.End)
	assert.Equal(t, [3]string{"January 2024", "February 2024", "March 2024"}, w.Labels())
	assert.Equal(t, 29, w.Months[1].End.Day())
	assert.Equal(t, 91, w.Days())
}

func TestTrailingWindowCrossesYear(t *testing.T) {
	w := TrailingWindow(time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2024, time.November, 1, 0, 0, 0, 0, time.UTC), w.Months[0].Start)
	assert.Equal(t, time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC), w.Months[1].Start)
	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), w.Months[2].Start)
	assert.Equal(t, 31, w.Months[2].End.Day())
}

func TestTrailingWindowNormalisesToUTC(t *testing.T) {
	tz := time.FixedZone("UTC+10", 10*3600)
	// 2024-03-01 05:00 in UTC+10 is still 29 February in UTC.
	w := TrailingWindow(time.Date(2024, time.March, 1, 5, 0, 0, 0, tz))
	assert.Equal(t, time.January, w.Months[2].Start.Month())
}

func TestTrailingWindowProperties(t *testing.T) {
	start := time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC)
	for day := 0; day < 365*6; day += 3 {
		now := start.AddDate(0, 0, day).Add(time.Duration(day%24) * time.Hour)
		w := TrailingWindow(now)
		firstOfCurrent := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

		require.True(t, w.End.Before(firstOfCurrent), "now=%s", now)
		require.Equal(t, w.Months[0].Start, w.Start)
		require.Equal(t, w.Months[2].End, w.End)
		for i, m := range w.Months {
			require.Equal(t, 1, m.Start.Day())
			require.Equal(t, m.Start.AddDate(0, 1, 0).Add(-time.Nanosecond), m.End, "month %d covers one calendar month", i)
			if i > 0 {
				require.Equal(t, w.Months[i-1].End.Add(time.Nanosecond), m.Start, "months are contiguous")
			}
		}
	}
}
