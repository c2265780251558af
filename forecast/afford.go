package forecast

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AFFORDABILITY - "Can I afford it?" calculator
// =============================================================================

// DatedAmount is a concrete, already-dated credit or debit magnitude.
// The calculators take these instead of recurrence rules.
type DatedAmount struct {
	Name   string
	Amount decimal.Decimal // positive magnitude
	Date   Date
}

// AffordInput describes one purchase against a simple cash picture.
type AffordInput struct {
	StartingBalance decimal.Decimal
	PurchaseName    string
	PurchaseAmount  decimal.Decimal
	PurchaseDate    Date
	Bills           []DatedAmount
	Income          []DatedAmount
	SafetyBuffer    decimal.Decimal
	Window          Window
}

// AffordResult compares the window with and without the purchase.
type AffordResult struct {
	Days     []DaySnapshot
	Risks    RiskReport
	Baseline RiskReport

	// CanAfford is true when no day ends below the safety buffer once
	// the purchase is applied.
	CanAfford bool

	// Headroom is the lowest ending balance minus the buffer. Negative
	// means the purchase pushes the balance under the buffer by that much.
	Headroom decimal.Decimal
}

// Afford runs the day-by-day simulation without recurrence expansion.
// A purchase dated outside the window is an ErrOutsideWindow error.
func Afford(in AffordInput) (AffordResult, error) {
	if !in.Window.Contains(in.PurchaseDate) {
		return AffordResult{}, &ParseError{Field: "purchase_date", Value: in.PurchaseDate.String() + " not in " + in.Window.String(), Err: ErrOutsideWindow}
	}

	base := datedOccurrences(in.Bills, KindBill, "bill")
	base = append(base, datedOccurrences(in.Income, KindIncome, "income")...)

	purchase := Occurrence{
		Date:       in.PurchaseDate,
		Amount:     ClampAmount(in.PurchaseAmount.Abs()).Neg(),
		SourceID:   "purchase",
		SourceName: in.PurchaseName,
		SourceKind: KindBill,
	}
	if purchase.SourceName == "" {
		purchase.SourceName = "Purchase"
	}

	baseline := Simulate(in.StartingBalance, Merge([][]Occurrence{base}), in.Window.Start, in.Window.End)
	withPurchase := Merge([][]Occurrence{base, {purchase}})
	days := Simulate(in.StartingBalance, withPurchase, in.Window.Start, in.Window.End)
	risks := DetectRisks(days, in.SafetyBuffer)

	headroom := ClampAmount(in.StartingBalance).Sub(in.SafetyBuffer)
	if risks.LowestPoint != nil {
		headroom = risks.LowestPoint.Amount.Sub(in.SafetyBuffer)
	}

	return AffordResult{
		Days:      days,
		Risks:     risks,
		Baseline:  DetectRisks(baseline, in.SafetyBuffer),
		CanAfford: len(risks.LowBalanceDays) == 0,
		Headroom:  headroom,
	}, nil
}

func datedOccurrences(entries []DatedAmount, kind Kind, prefix string) []Occurrence {
	out := make([]Occurrence, 0, len(entries))
	for i, e := range entries {
		out = append(out, Occurrence{
			Date:       e.Date,
			Amount:     ClampAmount(e.Amount.Abs()).Mul(kind.Sign()),
			SourceID:   fmt.Sprintf("%s-%d", prefix, i),
			SourceName: e.Name,
			SourceKind: kind,
		})
	}
	return out
}

// ParseAmount parses a non-negative decimal magnitude from user input.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, &ParseError{Field: "amount", Value: s, Err: ErrInvalidAmount}
	}
	return ClampAmount(d), nil
}
