/*
assembler.go - Forecast orchestration

PURPOSE:
  BuildForecast is the one entry point callers use. It nets accounts into
  a starting balance, resolves "today" in the caller's time zone, expands
  every active item, then merges, simulates and scans for risk.

STEPS:
  1. Sum CurrentBalance over spendable accounts
  2. Window = [today in Location, today + HorizonDays - 1]
  3. Expand active income and bills over the window
  4. Merge into a single date-ordered stream
  5. Simulate day by day
  6. Detect low-balance, overdraft and collision days
  7. Package a ForecastResult

HORIZON:
  The engine has no limit of its own. Alert checks use 7 days, dashboards
  and digests 60-365 depending on the subscription tier; that policy
  lives in config.Tiers and is applied before calling in.

STATELESS:
  Nothing is cached between calls. Each forecast is recomputed from the
  inputs, so concurrent calls need no locking.
*/
package forecast

import (
	"time"

	"github.com/shopspring/decimal"
)

// Input is everything BuildForecast needs.
type Input struct {
	Accounts     []Account
	Income       []RecurringItem
	Bills        []RecurringItem
	SafetyBuffer decimal.Decimal

	// Location resolves "today". Nil means UTC.
	Location *time.Location

	// HorizonDays counts day 0 (today). Zero or less gives an empty forecast.
	HorizonDays int

	// Now overrides the clock; the zero value means time.Now().
	Now time.Time
}

// StartingBalance sums the balances of spendable accounts.
func StartingBalance(accounts []Account) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		if a.IsSpendable {
			total = total.Add(ClampAmount(a.CurrentBalance))
		}
	}
	return ClampAmount(total)
}

// BuildForecast runs the whole pipeline. It never fails.
func BuildForecast(in Input) ForecastResult {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	window := WindowFromHorizon(Today(now, in.Location), in.HorizonDays)
	return BuildForWindow(in, window)
}

// BuildForWindow is BuildForecast over an explicit window, for summaries
// that look backwards or start on a fixed day.
func BuildForWindow(in Input, window Window) ForecastResult {
	start := StartingBalance(in.Accounts)

	items := make([]RecurringItem, 0, len(in.Income)+len(in.Bills))
	for _, it := range in.Income {
		it.Kind = KindIncome
		items = append(items, it)
	}
	for _, it := range in.Bills {
		it.Kind = KindBill
		items = append(items, it)
	}

	occurrences := Merge(ExpandAll(items, window))
	days := Simulate(start, occurrences, window.Start, window.End)
	risks := DetectRisks(days, in.SafetyBuffer)

	return ForecastResult{
		Window:          window,
		StartingBalance: start,
		SafetyBuffer:    in.SafetyBuffer,
		Days:            days,
		Risks:           risks,
		Collisions:      risks.CollisionSummary(),
	}
}

// SplitByKind separates a mixed item list into income and bills.
func SplitByKind(items []RecurringItem) (income, bills []RecurringItem) {
	for _, it := range items {
		switch it.Kind {
		case KindIncome:
			income = append(income, it)
		case KindBill:
			bills = append(bills, it)
		}
	}
	return income, bills
}
