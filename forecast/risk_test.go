package forecast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarqouqas/cashflowforecaster/forecast"
)

func snap(date string, ending int64, occs ...forecast.Occurrence) forecast.DaySnapshot {
	return forecast.DaySnapshot{Date: d(date), EndingBalance: money(ending), Occurrences: occs}
}

func TestDetectRisks_LowAndOverdraft(t *testing.T) {
	snaps := []forecast.DaySnapshot{
		snap("2025-01-01", 500),
		snap("2025-01-02", 200), // equal to buffer: not low
		snap("2025-01-03", 199),
		snap("2025-01-04", 0), // zero: low, not overdraft
		snap("2025-01-05", -1),
	}
	report := forecast.DetectRisks(snaps, money(200))

	assert.Equal(t, []forecast.Date{d("2025-01-03"), d("2025-01-04"), d("2025-01-05")}, report.LowBalanceDays)
	assert.Equal(t, []forecast.Date{d("2025-01-05")}, report.OverdraftDays)
	assert.True(t, report.HasRisk())
}

func TestDetectRisks_Collisions(t *testing.T) {
	snaps := []forecast.DaySnapshot{
		snap("2025-01-01", 900,
			occ("2025-01-01", -50, forecast.KindBill, "a"),
			occ("2025-01-01", 500, forecast.KindIncome, "pay"),
		),
		snap("2025-01-02", 700,
			occ("2025-01-02", -150, forecast.KindBill, "b"),
			occ("2025-01-02", -50, forecast.KindBill, "c"),
		),
		snap("2025-01-03", 700,
			occ("2025-01-03", 100, forecast.KindIncome, "x"),
			occ("2025-01-03", 100, forecast.KindIncome, "y"),
		),
	}
	report := forecast.DetectRisks(snaps, money(0))

	require.Len(t, report.Collisions, 1)
	assert.Equal(t, d("2025-01-02"), report.Collisions[0].Date)
	assert.Equal(t, 2, report.Collisions[0].OccurrenceCount)
	assertDecimal(t, -200, report.Collisions[0].Total)

	summary := report.CollisionSummary()
	assert.Equal(t, 1, summary.Count)
	assert.Equal(t, []forecast.Date{d("2025-01-02")}, summary.Dates)
}

func TestDetectRisks_LowestPointFirstTieWins(t *testing.T) {
	snaps := []forecast.DaySnapshot{
		snap("2025-01-01", 300),
		snap("2025-01-02", 50),
		snap("2025-01-03", 80),
		snap("2025-01-04", 50),
	}
	report := forecast.DetectRisks(snaps, money(0))
	require.NotNil(t, report.LowestPoint)
	assert.Equal(t, d("2025-01-02"), report.LowestPoint.Date)
	assertDecimal(t, 50, report.LowestPoint.Amount)
	assert.False(t, report.HasRisk())
}

func TestDetectRisks_Empty(t *testing.T) {
	report := forecast.DetectRisks(nil, money(100))
	assert.Empty(t, report.LowBalanceDays)
	assert.Empty(t, report.OverdraftDays)
	assert.Empty(t, report.Collisions)
	assert.Nil(t, report.LowestPoint)
	assert.Equal(t, 0, report.CollisionSummary().Count)
}
