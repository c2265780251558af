/*
simulate.go - Day-by-day running balance

PURPOSE:
  Walks the window one calendar day at a time from a starting balance,
  applying every occurrence dated that day, and records a DaySnapshot per
  day. This is where "will I have enough?" gets answered.

WORST CASE FIRST:
  Same-day occurrences are applied by signed amount ascending: the largest
  debit first, credits last. A rent payment and a paycheck on the same day
  therefore show the dip below zero that really happens when the bill
  clears before the deposit. LowBalance on the snapshot keeps that dip even
  though only EndingBalance is carried into the next day.

NUMERIC POLICY:
  Every amount and every running balance is clamped to +-MaxAmount.
  decimal.Decimal has no NaN or Inf; untrusted floats go through
  SanitizeFloat before they get here.

EXAMPLE:
  start 100, day has -500 bill and +1000 income
  applied: -500 (low -400), +1000  ->  ending 600, LowBalance -400
*/
package forecast

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Simulate produces one snapshot per day in [windowStart, windowEnd].
// occurrences must be sorted by date (see Merge); those outside the
// window are ignored. An inverted window yields no snapshots.
func Simulate(startingBalance decimal.Decimal, occurrences []Occurrence, windowStart, windowEnd Date) []DaySnapshot {
	w := Window{Start: windowStart, End: windowEnd}
	if w.IsEmpty() {
		return nil
	}

	days := w.Days()
	snapshots := make([]DaySnapshot, 0, len(days))
	balance := ClampAmount(startingBalance)
	next := 0

	// Skip anything dated before the window.
	for next < len(occurrences) && occurrences[next].Date.Before(w.Start) {
		next++
	}

	for _, day := range days {
		var today []Occurrence
		for next < len(occurrences) && occurrences[next].Date.Equal(day) {
			today = append(today, occurrences[next])
			next++
		}
		snap := applyDay(day, balance, today)
		snapshots = append(snapshots, snap)
		balance = snap.EndingBalance
	}
	return snapshots
}

// applyDay orders the day's occurrences debits-first and applies them.
func applyDay(day Date, opening decimal.Decimal, today []Occurrence) DaySnapshot {
	ordered := make([]Occurrence, len(today))
	for i, o := range today {
		o.Amount = ClampAmount(o.Amount)
		ordered[i] = o
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Amount.LessThan(ordered[j].Amount)
	})

	balance := opening
	low := opening
	for _, o := range ordered {
		balance = ClampAmount(balance.Add(o.Amount))
		if balance.LessThan(low) {
			low = balance
		}
	}

	return DaySnapshot{
		Date:            day,
		StartingBalance: opening,
		EndingBalance:   balance,
		NetChange:       balance.Sub(opening),
		LowBalance:      low,
		Occurrences:     ordered,
	}
}
