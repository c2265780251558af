/*
Package forecast provides the day-by-day cash flow projection engine.

PURPOSE:
  Given a starting balance, recurring or one-off income and bills, this
  package expands recurrence rules into concrete calendar occurrences,
  walks a window day by day applying them, and flags low-balance,
  overdraft and bill-collision days. The dashboard, the weekly digest,
  the low-balance alert job and the public calculators all use it.

PIPELINE:
  Expand (recurrence.go)  ->  Merge (merge.go)  ->  Simulate (simulate.go)
  ->  DetectRisks (risk.go), orchestrated by BuildForecast (assembler.go).

KEY CONCEPTS IN THIS FILE (types.go):
  - Kind: income (credit) or bill (debit)
  - Frequency: closed set of recurrence rules
  - RecurringItem / Account: inputs, read-only to the engine
  - Occurrence / DaySnapshot / ForecastResult: outputs

DESIGN PRINCIPLES:
  1. Pure: no I/O, no globals, every call allocates its own output
  2. Precision: amounts are decimal.Decimal
  3. Calendar dates: no time zones inside the engine (see date.go)
  4. Degrade, don't fail: bad numbers are clamped, empty input is valid

USAGE:
  result := forecast.BuildForecast(forecast.Input{
      Accounts:     accounts,
      Income:       income,
      Bills:        bills,
      SafetyBuffer: decimal.NewFromInt(200),
      Location:     loc,
      HorizonDays:  60,
  })
*/
package forecast

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// KIND - Income or bill
// =============================================================================

type Kind string

const (
	KindIncome Kind = "income"
	KindBill   Kind = "bill"
)

// ParseKind validates a kind coming from outside the engine.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindIncome:
		return KindIncome, nil
	case KindBill:
		return KindBill, nil
	}
	return "", &ParseError{Field: "kind", Value: s, Err: ErrUnknownKind}
}

// Sign returns +1 for income and -1 for bills.
func (k Kind) Sign() decimal.Decimal {
	if k == KindBill {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// =============================================================================
// FREQUENCY - Recurrence rule
// =============================================================================

type Frequency string

const (
	FreqWeekly      Frequency = "weekly"
	FreqBiweekly    Frequency = "biweekly"
	FreqSemiMonthly Frequency = "semi-monthly"
	FreqMonthly     Frequency = "monthly"
	FreqQuarterly   Frequency = "quarterly"
	FreqAnnually    Frequency = "annually"
	FreqOneTime     Frequency = "one-time"
	FreqIrregular   Frequency = "irregular"
)

// Frequencies lists every supported rule in display order.
var Frequencies = []Frequency{
	FreqWeekly, FreqBiweekly, FreqSemiMonthly, FreqMonthly,
	FreqQuarterly, FreqAnnually, FreqOneTime, FreqIrregular,
}

var frequencyAliases = map[string]Frequency{
	"weekly":        FreqWeekly,
	"biweekly":      FreqBiweekly,
	"bi-weekly":     FreqBiweekly,
	"fortnightly":   FreqBiweekly,
	"semi-monthly":  FreqSemiMonthly,
	"semimonthly":   FreqSemiMonthly,
	"semi_monthly":  FreqSemiMonthly,
	"twice-monthly": FreqSemiMonthly,
	"monthly":       FreqMonthly,
	"quarterly":     FreqQuarterly,
	"annually":      FreqAnnually,
	"annual":        FreqAnnually,
	"yearly":        FreqAnnually,
	"one-time":      FreqOneTime,
	"one_time":      FreqOneTime,
	"onetime":       FreqOneTime,
	"once":          FreqOneTime,
	"irregular":     FreqIrregular,
}

// ParseFrequency maps user or database input to a Frequency. Unknown
// values are rejected here so they never reach the expander.
func ParseFrequency(s string) (Frequency, error) {
	if f, ok := frequencyAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return f, nil
	}
	return "", &ParseError{Field: "frequency", Value: s, Err: ErrUnknownFrequency}
}

// =============================================================================
// INPUT ENTITIES
// =============================================================================

// RecurringItem is an income source or a bill. The engine only reads it.
type RecurringItem struct {
	ID         string
	Name       string
	Kind       Kind
	Amount     decimal.Decimal // positive magnitude, sign comes from Kind
	Frequency  Frequency
	AnchorDate Date
	IsActive   bool
}

// SignedAmount applies the kind's sign to the sanitised magnitude.
func (it RecurringItem) SignedAmount() decimal.Decimal {
	return ClampAmount(it.Amount.Abs()).Mul(it.Kind.Sign())
}

// Account is a balance holder. Only spendable accounts feed the forecast.
type Account struct {
	ID             string
	Name           string
	CurrentBalance decimal.Decimal
	IsSpendable    bool
}

// =============================================================================
// OUTPUT
// =============================================================================

// Occurrence is one concrete dated instance of an item. Not persisted.
type Occurrence struct {
	Date       Date
	Amount     decimal.Decimal // signed: positive credit, negative debit
	SourceID   string
	SourceName string
	SourceKind Kind
}

// DaySnapshot is the simulated state of a single day.
//
// INVARIANTS:
//   - EndingBalance == StartingBalance + NetChange
//   - next day's StartingBalance == this day's EndingBalance
//   - LowBalance <= min(StartingBalance, EndingBalance)
type DaySnapshot struct {
	Date            Date
	StartingBalance decimal.Decimal
	EndingBalance   decimal.Decimal
	NetChange       decimal.Decimal

	// Lowest balance reached while applying the day's occurrences
	// debits-first. Not carried forward.
	LowBalance decimal.Decimal

	// In applied order.
	Occurrences []Occurrence
}

// Bills counts bill-kind occurrences on the day.
func (s DaySnapshot) Bills() int {
	n := 0
	for _, o := range s.Occurrences {
		if o.SourceKind == KindBill {
			n++
		}
	}
	return n
}

// ForecastResult is everything the dashboard, digest and alert job read.
type ForecastResult struct {
	Window          Window
	StartingBalance decimal.Decimal
	SafetyBuffer    decimal.Decimal
	Days            []DaySnapshot
	Risks           RiskReport
	Collisions      CollisionReport
}

// EndingBalance is the balance at the end of the last day, or the
// starting balance if the window is empty.
func (r ForecastResult) EndingBalance() decimal.Decimal {
	if len(r.Days) == 0 {
		return r.StartingBalance
	}
	return r.Days[len(r.Days)-1].EndingBalance
}

// FirstDays returns at most n leading snapshots.
func (r ForecastResult) FirstDays(n int) []DaySnapshot {
	if n > len(r.Days) {
		n = len(r.Days)
	}
	if n < 0 {
		n = 0
	}
	return r.Days[:n]
}

// SafeToSpend is how far the lowest point sits above the safety buffer,
// floored at zero.
func (r ForecastResult) SafeToSpend() decimal.Decimal {
	if r.Risks.LowestPoint == nil {
		return decimal.Max(r.StartingBalance.Sub(r.SafetyBuffer), decimal.Zero)
	}
	return decimal.Max(r.Risks.LowestPoint.Amount.Sub(r.SafetyBuffer), decimal.Zero)
}

// =============================================================================
// NUMERIC POLICY
// =============================================================================

// MaxAmount bounds every amount the engine handles.
var MaxAmount = decimal.NewFromInt(1_000_000_000)

// ClampAmount bounds d to [-MaxAmount, MaxAmount].
func ClampAmount(d decimal.Decimal) decimal.Decimal {
	if d.GreaterThan(MaxAmount) {
		return MaxAmount
	}
	if d.LessThan(MaxAmount.Neg()) {
		return MaxAmount.Neg()
	}
	return d
}

// SanitizeFloat converts an untrusted float, mapping NaN and ±Inf to zero
// and clamping the rest.
func SanitizeFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return ClampAmount(decimal.NewFromFloat(f))
}
