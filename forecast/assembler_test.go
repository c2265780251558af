package forecast_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarqouqas/cashflowforecaster/forecast"
)

func noon(date string) time.Time {
	return d(date).Time(time.UTC).Add(12 * time.Hour)
}

func TestStartingBalance_OnlySpendable(t *testing.T) {
	accounts := []forecast.Account{
		{ID: "checking", CurrentBalance: money(1200), IsSpendable: true},
		{ID: "savings", CurrentBalance: money(10000), IsSpendable: false},
		{ID: "card", CurrentBalance: money(-300), IsSpendable: true},
	}
	assertDecimal(t, 900, forecast.StartingBalance(accounts))
	assert.True(t, forecast.StartingBalance(nil).IsZero())
}

func TestBuildForecast_HorizonLength(t *testing.T) {
	for _, horizon := range []int{1, 7, 60, 365} {
		result := forecast.BuildForecast(forecast.Input{HorizonDays: horizon, Now: noon("2025-03-10")})
		require.Len(t, result.Days, horizon)
		assert.Equal(t, d("2025-03-10"), result.Days[0].Date)
		assert.Equal(t, d("2025-03-10").AddDays(horizon-1), result.Window.End)
	}
}

func TestBuildForecast_ZeroHorizonIsEmpty(t *testing.T) {
	result := forecast.BuildForecast(forecast.Input{
		Accounts:    []forecast.Account{{CurrentBalance: money(50), IsSpendable: true}},
		HorizonDays: 0,
		Now:         noon("2025-03-10"),
	})
	assert.Empty(t, result.Days)
	assertDecimal(t, 50, result.EndingBalance())
	assert.Nil(t, result.Risks.LowestPoint)
}

func TestBuildForecast_EmptyEntitiesHoldBalanceFlat(t *testing.T) {
	result := forecast.BuildForecast(forecast.Input{
		Accounts:    []forecast.Account{{CurrentBalance: money(750), IsSpendable: true}},
		HorizonDays: 14,
		Now:         noon("2025-03-10"),
	})
	require.Len(t, result.Days, 14)
	for _, s := range result.Days {
		assertDecimal(t, 750, s.EndingBalance)
		assert.Empty(t, s.Occurrences)
	}
}

func TestBuildForecast_TodayInUserTimezone(t *testing.T) {
	// GIVEN: 03:00 UTC on Mar 10, a user five hours behind UTC
	// THEN: Day 0 is still Mar 9 for that user

	now := time.Date(2025, time.March, 10, 3, 0, 0, 0, time.UTC)
	behind := time.FixedZone("UTC-5", -5*3600)

	result := forecast.BuildForecast(forecast.Input{HorizonDays: 3, Now: now, Location: behind})
	assert.Equal(t, d("2025-03-09"), result.Window.Start)

	result = forecast.BuildForecast(forecast.Input{HorizonDays: 3, Now: now})
	assert.Equal(t, d("2025-03-10"), result.Window.Start)
}

func TestBuildForecast_SignFollowsList(t *testing.T) {
	// An item passed in Bills is a debit even if tagged income.
	mislabelled := income("rent", 100, forecast.FreqOneTime, "2025-03-11")
	result := forecast.BuildForecast(forecast.Input{
		Accounts:    []forecast.Account{{CurrentBalance: money(500), IsSpendable: true}},
		Bills:       []forecast.RecurringItem{mislabelled},
		HorizonDays: 3,
		Now:         noon("2025-03-10"),
	})
	assertDecimal(t, 400, result.EndingBalance())
	assert.Equal(t, forecast.KindBill, result.Days[1].Occurrences[0].SourceKind)
}

func TestBuildForecast_InactiveItemsExcluded(t *testing.T) {
	rent := bill("rent", 1200, forecast.FreqMonthly, "2025-03-15")
	rent.IsActive = false
	result := forecast.BuildForecast(forecast.Input{
		Accounts:    []forecast.Account{{CurrentBalance: money(100), IsSpendable: true}},
		Bills:       []forecast.RecurringItem{rent},
		HorizonDays: 30,
		Now:         noon("2025-03-10"),
	})
	assertDecimal(t, 100, result.EndingBalance())
	assert.False(t, result.Risks.HasRisk())
}

// =============================================================================
// END-TO-END SCENARIOS
// =============================================================================

func freelancerInput(now string) forecast.Input {
	return forecast.Input{
		Accounts: []forecast.Account{
			{ID: "checking", CurrentBalance: money(1000), IsSpendable: true},
			{ID: "tax-reserve", CurrentBalance: money(5000), IsSpendable: false},
		},
		Bills:        []forecast.RecurringItem{bill("rent", 1200, forecast.FreqMonthly, "2025-01-01")},
		SafetyBuffer: money(200),
		HorizonDays:  30,
		Now:          noon(now),
	}
}

func TestScenario_PaycheckClearsBeforeRent(t *testing.T) {
	// GIVEN: $1000, rent $1200 on the 1st, biweekly $900 starting today (Mar 10)
	// WHEN: Forecasting 30 days
	// THEN: Paychecks Mar 10 and Mar 24 land before rent on Apr 1; no risk

	in := freelancerInput("2025-03-10")
	in.Income = []forecast.RecurringItem{income("client", 900, forecast.FreqBiweekly, "2025-03-10")}

	result := forecast.BuildForecast(in)
	require.Len(t, result.Days, 30)
	assertDecimal(t, 1000, result.StartingBalance)

	byDate := map[forecast.Date]forecast.DaySnapshot{}
	for _, s := range result.Days {
		byDate[s.Date] = s
	}
	assertDecimal(t, 1900, byDate[d("2025-03-10")].EndingBalance)
	assertDecimal(t, 2800, byDate[d("2025-03-24")].EndingBalance)
	assertDecimal(t, 1600, byDate[d("2025-04-01")].EndingBalance)
	assertDecimal(t, 2500, byDate[d("2025-04-07")].EndingBalance)

	assert.Empty(t, result.Risks.LowBalanceDays)
	assert.Empty(t, result.Risks.OverdraftDays)
	assert.Equal(t, d("2025-04-01"), result.Risks.LowestPoint.Date)
	assertDecimal(t, 1400, result.SafeToSpend())
}

func TestScenario_RentBeforeFirstPaycheck(t *testing.T) {
	// GIVEN: Same freelancer, today Mar 28, first paycheck not until Apr 2
	// WHEN: Forecasting 30 days
	// THEN: Exactly one low-balance day, the rent day, which is also an overdraft

	in := freelancerInput("2025-03-28")
	in.Income = []forecast.RecurringItem{income("client", 900, forecast.FreqBiweekly, "2025-04-02")}

	result := forecast.BuildForecast(in)

	assert.Equal(t, []forecast.Date{d("2025-04-01")}, result.Risks.LowBalanceDays)
	assert.Equal(t, []forecast.Date{d("2025-04-01")}, result.Risks.OverdraftDays)
	require.NotNil(t, result.Risks.LowestPoint)
	assertDecimal(t, -200, result.Risks.LowestPoint.Amount)
	assert.True(t, result.SafeToSpend().IsZero())
}

func TestScenario_RentAndPaycheckSameDay(t *testing.T) {
	// GIVEN: Today is Apr 1, paycheck and rent both land today
	// THEN: End of day is fine, but the snapshot shows the dip below zero

	in := freelancerInput("2025-04-01")
	in.Income = []forecast.RecurringItem{income("client", 900, forecast.FreqBiweekly, "2025-04-01")}

	result := forecast.BuildForecast(in)
	today := result.Days[0]

	assertDecimal(t, 700, today.EndingBalance)
	assertDecimal(t, -200, today.LowBalance)
	assert.Empty(t, result.Risks.LowBalanceDays)
}

func TestScenario_BillCollision(t *testing.T) {
	in := forecast.Input{
		Accounts: []forecast.Account{{CurrentBalance: money(5000), IsSpendable: true}},
		Bills: []forecast.RecurringItem{
			bill("rent", 1200, forecast.FreqMonthly, "2025-01-01"),
			bill("insurance", 150, forecast.FreqMonthly, "2025-02-01"),
			bill("software", 30, forecast.FreqMonthly, "2025-01-15"),
		},
		SafetyBuffer: decimal.Zero,
		HorizonDays:  60,
		Now:          noon("2025-03-10"),
	}
	result := forecast.BuildForecast(in)

	assert.Equal(t, 2, result.Collisions.Count)
	assert.Equal(t, []forecast.Date{d("2025-04-01"), d("2025-05-01")}, result.Collisions.Dates)
	assert.Empty(t, result.Risks.LowBalanceDays)
}

func TestBuildForecast_FirstDays(t *testing.T) {
	result := forecast.BuildForecast(forecast.Input{HorizonDays: 30, Now: noon("2025-03-10")})
	assert.Len(t, result.FirstDays(7), 7)
	assert.Len(t, result.FirstDays(100), 30)
	assert.Empty(t, result.FirstDays(-1))
}

func TestForecastResult_SafeToSpend(t *testing.T) {
	// GIVEN: $1000 with a $300 buffer and a $500 bill on the 12th
	in := forecast.Input{
		Accounts:     []forecast.Account{{CurrentBalance: money(1000), IsSpendable: true}},
		Bills:        []forecast.RecurringItem{bill("b1", 500, forecast.FreqOneTime, "2025-03-12")},
		SafetyBuffer: money(300),
		HorizonDays:  7,
		Now:          noon("2025-03-10"),
	}

	// THEN: Only the gap between the lowest point and the buffer is free
	assertDecimal(t, 200, forecast.BuildForecast(in).SafeToSpend())

	// WHEN: The bill sinks the balance below the buffer
	in.Bills[0].Amount = money(900)

	// THEN: Nothing is safe to spend
	assert.True(t, forecast.BuildForecast(in).SafeToSpend().IsZero())
}
