package forecast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarqouqas/cashflowforecaster/forecast"
)

func affordInput(purchase int64, on string) forecast.AffordInput {
	return forecast.AffordInput{
		StartingBalance: money(2000),
		PurchaseName:    "Camera",
		PurchaseAmount:  money(purchase),
		PurchaseDate:    d(on),
		Bills: []forecast.DatedAmount{
			{Name: "Rent", Amount: money(1500), Date: d("2025-04-01")},
		},
		Income: []forecast.DatedAmount{
			{Name: "Invoice #42", Amount: money(1200), Date: d("2025-04-10")},
		},
		SafetyBuffer: money(300),
		Window:       forecast.Window{Start: d("2025-03-20"), End: d("2025-04-19")},
	}
}

func TestAfford_Affordable(t *testing.T) {
	// GIVEN: $2000, rent $1500 on Apr 1, invoice $1200 on Apr 10
	// WHEN: Buying a $100 camera on Mar 25
	// THEN: Lowest point is 400 on Apr 1, above the 300 buffer

	result, err := forecast.Afford(affordInput(100, "2025-03-25"))
	require.NoError(t, err)
	assert.True(t, result.CanAfford)
	require.NotNil(t, result.Risks.LowestPoint)
	assertDecimal(t, 400, result.Risks.LowestPoint.Amount)
	assert.Equal(t, d("2025-04-01"), result.Risks.LowestPoint.Date)
	assertDecimal(t, 100, result.Headroom)
	assert.Len(t, result.Days, 31)
}

func TestAfford_NotAffordableUntilInvoice(t *testing.T) {
	// A $300 camera before rent: Apr 1-9 end below the buffer.
	result, err := forecast.Afford(affordInput(300, "2025-03-25"))
	require.NoError(t, err)
	assert.False(t, result.CanAfford)
	assert.Len(t, result.Risks.LowBalanceDays, 9)
	assert.Empty(t, result.Risks.OverdraftDays)
	assertDecimal(t, -100, result.Headroom)

	// Without the purchase the month is fine.
	assert.Empty(t, result.Baseline.LowBalanceDays)

	// Buying after the invoice clears is fine.
	later, err := forecast.Afford(affordInput(300, "2025-04-10"))
	require.NoError(t, err)
	assert.True(t, later.CanAfford)
}

func TestAfford_PurchaseIsDebit(t *testing.T) {
	in := affordInput(-250, "2025-03-20")
	in.Bills, in.Income = nil, nil
	result, err := forecast.Afford(in)
	require.NoError(t, err)
	assertDecimal(t, 1750, result.Days[0].EndingBalance)
	assert.Equal(t, "Camera", result.Days[0].Occurrences[0].SourceName)
}

func TestAfford_PurchaseOutsideWindowRejected(t *testing.T) {
	// GIVEN: $100 and a 30-day window from Mar 1
	in := forecast.AffordInput{
		StartingBalance: money(100),
		PurchaseAmount:  money(5000),
		Window:          forecast.WindowFromHorizon(d("2025-03-01"), 30),
	}

	for _, on := range []string{"2025-05-01", "2025-02-28"} {
		// WHEN: The purchase falls outside it
		in.PurchaseDate = d(on)
		_, err := forecast.Afford(in)

		// THEN: It is refused instead of silently ignored
		assert.ErrorIs(t, err, forecast.ErrOutsideWindow, on)
		assert.True(t, forecast.IsClientError(err))
	}

	// The last day of the window still counts
	in.PurchaseDate = d("2025-03-30")
	result, err := forecast.Afford(in)
	require.NoError(t, err)
	assert.False(t, result.CanAfford)
}

func TestParseAmount(t *testing.T) {
	v, err := forecast.ParseAmount("1234.56")
	require.NoError(t, err)
	assert.Equal(t, "1234.56", v.String())

	_, err = forecast.ParseAmount("-5")
	assert.ErrorIs(t, err, forecast.ErrInvalidAmount)
	_, err = forecast.ParseAmount("lots")
	assert.ErrorIs(t, err, forecast.ErrInvalidAmount)

	v, err = forecast.ParseAmount("99999999999")
	require.NoError(t, err)
	assert.True(t, v.Equal(forecast.MaxAmount))
}
