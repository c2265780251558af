package notify

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarqouqas/cashflowforecaster/config"
	"github.com/omarqouqas/cashflowforecaster/forecast"
)

func monthly(name string, amount int64, anchor string) forecast.RecurringItem {
	return forecast.RecurringItem{
		ID: name, Name: name, Amount: decimal.NewFromInt(amount),
		Frequency: forecast.FreqMonthly, AnchorDate: forecast.MustParseDate(anchor), IsActive: true,
	}
}

// Mar 1-14: rent + phone on the 3rd, pay every Thursday from the 5th,
// internet on the 10th.
func twoWeeks(balance int64) forecast.ForecastResult {
	pay := monthly("Client", 500, "2025-03-05")
	pay.Frequency = forecast.FreqWeekly
	in := forecast.Input{
		Accounts:     []forecast.Account{{Name: "Checking", CurrentBalance: decimal.NewFromInt(balance), IsSpendable: true}},
		Income:       []forecast.RecurringItem{pay},
		Bills:        []forecast.RecurringItem{monthly("Rent", 800, "2025-03-03"), monthly("Phone", 100, "2025-03-03"), monthly("Internet", 60, "2025-03-10")},
		SafetyBuffer: decimal.NewFromInt(200),
	}
	window := forecast.Window{Start: forecast.MustParseDate("2025-03-01"), End: forecast.MustParseDate("2025-03-14")}
	return forecast.BuildForWindow(in, window)
}

var sam = forecast.Profile{ID: "p1", Name: "Sam", Email: "sam@example.com"}

func TestSummarizeWeek(t *testing.T) {
	week := SummarizeWeek(twoWeeks(1000))

	assert.Len(t, week.Days, DigestDays)
	assert.Equal(t, "2025-03-07", week.Window.End.String())
	assert.Equal(t, "1000", week.Opening.String())
	assert.Equal(t, "600", week.Closing.String())
	assert.Equal(t, "500", week.Income.String())
	assert.Equal(t, "900", week.Bills.String())
	require.NotNil(t, week.Risks.LowestPoint)
	assert.Equal(t, "2025-03-03", week.Risks.LowestPoint.Date.String())
	require.Len(t, week.Risks.Collisions, 1)
}

func TestComposeDigest(t *testing.T) {
	// GIVEN: A week with a two-bill day that dips under the buffer
	result := twoWeeks(1000)

	// WHEN: Composing the digest
	msg := ComposeDigest(sam, result)

	// THEN: Totals, bills and the collision are in the body; internet
	// (day 10) is not
	assert.Equal(t, "sam@example.com", msg.To)
	assert.Equal(t, "Your week ahead: closing at $600.00", msg.Subject)
	assert.Contains(t, msg.Text, "Hi Sam,")
	assert.Contains(t, msg.Text, "Opening balance:  $1000.00")
	assert.Contains(t, msg.Text, "Bills due:        $900.00")
	assert.Contains(t, msg.Text, "Lowest point:     $100.00 on 2025-03-03")
	assert.Contains(t, msg.Text, "2025-03-03  2 bills, $900.00 total")
	assert.Contains(t, msg.Text, "2 day(s) end below your $200.00 safety buffer")
	assert.NotContains(t, msg.Text, "Internet")
}

func TestComposeDigest_EmptyForecast(t *testing.T) {
	msg := ComposeDigest(forecast.Profile{Email: "x@example.com"}, forecast.ForecastResult{StartingBalance: decimal.NewFromInt(42)})
	assert.Contains(t, msg.Text, "Hi there,")
	assert.Contains(t, msg.Text, "nothing to forecast")
	assert.Equal(t, "Your week ahead: closing at $42.00", msg.Subject)
}

func TestComposeLowBalanceAlert(t *testing.T) {
	// No low days, no alert
	healthy := twoWeeks(5000)
	_, ok := ComposeLowBalanceAlert(sam, healthy)
	assert.False(t, ok)

	// Low but not overdrawn
	msg, ok := ComposeLowBalanceAlert(sam, twoWeeks(1000))
	require.True(t, ok)
	assert.Equal(t, "Low balance ahead on 2025-03-03", msg.Subject)
	assert.Contains(t, msg.Text, "2025-03-04  $100.00")
	assert.NotContains(t, msg.Text, "OVERDRAFT")

	// Overdrawn on the 3rd and 4th
	msg, ok = ComposeLowBalanceAlert(sam, twoWeeks(500))
	require.True(t, ok)
	assert.Equal(t, "Overdraft risk on 2025-03-03", msg.Subject)
	assert.Contains(t, msg.Text, "2025-03-03  -$400.00  OVERDRAFT")
	assert.Contains(t, msg.Text, "2025-03-10  $40.00\n")
}

func TestNewSender(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)

	s := NewSender(config.SMTPConfig{}, logger)
	require.IsType(t, &LogSender{}, s)
	require.NoError(t, s.Send(context.Background(), Message{To: "a@b.c", Subject: "hello"}))
	assert.Contains(t, buf.String(), "hello")

	smtpSender := NewSender(config.SMTPConfig{Host: "smtp.example.com", Port: 587}, logger)
	assert.IsType(t, &SMTPSender{}, smtpSender)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, smtpSender.Send(ctx, Message{To: "a@b.c"}), context.Canceled)
	assert.Error(t, smtpSender.Send(context.Background(), Message{Subject: "no one"}))
}
