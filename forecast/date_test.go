package forecast_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarqouqas/cashflowforecaster/forecast"
)

func TestDate_AddMonthsClamped(t *testing.T) {
	cases := []struct {
		from   string
		months int
		want   string
	}{
		{"2025-01-31", 1, "2025-02-28"},
		{"2024-01-31", 1, "2024-02-29"},
		{"2025-01-31", 3, "2025-04-30"},
		{"2025-12-15", 1, "2026-01-15"},
		{"2025-03-31", -1, "2025-02-28"},
		{"2024-02-29", 12, "2025-02-28"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, d(tc.from).AddMonthsClamped(tc.months).String(), "%s + %d", tc.from, tc.months)
	}
}

func TestDate_AddDaysAcrossDST(t *testing.T) {
	// US DST starts 2025-03-09; calendar arithmetic must not notice.
	assert.Equal(t, "2025-03-10", d("2025-03-08").AddDays(2).String())
	assert.Equal(t, "2025-11-03", d("2025-11-01").AddDays(2).String())
	assert.Equal(t, 365, forecast.DaysBetween(d("2025-01-01"), d("2026-01-01")))
	assert.Equal(t, 366, forecast.DaysBetween(d("2024-01-01"), d("2025-01-01")))
}

func TestDaysBetween_Centuries(t *testing.T) {
	// Spans longer than time.Duration can hold (~292 years)
	assert.Equal(t, 118664, forecast.DaysBetween(d("1700-01-01"), d("2024-11-22")))
	assert.Equal(t, -118664, forecast.DaysBetween(d("2024-11-22"), d("1700-01-01")))
	assert.Equal(t, 3651694, forecast.DaysBetween(d("0001-01-01"), d("9999-01-01")))

	w := forecast.Window{Start: d("1500-01-01"), End: d("1999-12-31")}
	assert.Equal(t, forecast.DaysBetween(w.Start, w.End)+1, w.Len())
	assert.Len(t, w.Days(), w.Len())
}

func TestDate_DaysIn(t *testing.T) {
	assert.Equal(t, 29, forecast.DaysIn(2024, time.February))
	assert.Equal(t, 28, forecast.DaysIn(2100, time.February))
	assert.Equal(t, 29, forecast.DaysIn(2000, time.February))
	assert.Equal(t, 30, forecast.DaysIn(2025, time.April))
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []string{"", "2025-02-30", "03/10/2025", "2025-3-1"} {
		_, err := forecast.ParseDate(in)
		assert.ErrorIs(t, err, forecast.ErrInvalidDate, in)
	}
}

func TestDate_JSON(t *testing.T) {
	var payload struct {
		On forecast.Date `json:"on"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"on":"2025-02-28"}`), &payload))
	assert.Equal(t, d("2025-02-28"), payload.On)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"on":"2025-02-28"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"on":"tomorrow"}`), &payload))
}

func TestWindow(t *testing.T) {
	w := forecast.WindowFromHorizon(d("2025-02-27"), 4)
	assert.Equal(t, d("2025-03-02"), w.End)
	assert.Equal(t, 4, w.Len())
	assert.Len(t, w.Days(), 4)
	assert.True(t, w.Contains(d("2025-03-01")))
	assert.False(t, w.Contains(d("2025-03-03")))

	empty := forecast.WindowFromHorizon(d("2025-02-27"), 0)
	assert.True(t, empty.IsEmpty())
	assert.Equal(t, 0, empty.Len())
	assert.Empty(t, empty.Days())
}
