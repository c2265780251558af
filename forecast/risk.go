package forecast

import "github.com/shopspring/decimal"

// =============================================================================
// RISK REPORT - Low balance, overdraft, collisions
// =============================================================================

// RiskReport is the post-processing of a simulated window.
type RiskReport struct {
	// Days whose ending balance is strictly below the safety buffer.
	LowBalanceDays []Date

	// Days whose ending balance is strictly below zero. A subset of
	// LowBalanceDays whenever the buffer is >= 0.
	OverdraftDays []Date

	Collisions []Collision

	// Lowest ending balance in the window; the first day wins ties.
	// Nil when there are no snapshots.
	LowestPoint *LowestPoint
}

// Collision is a day where two or more bills land together.
type Collision struct {
	Date            Date
	OccurrenceCount int
	Total           decimal.Decimal // sum of the colliding bills, negative
}

// CollisionReport is the digest/dashboard view of the collisions.
type CollisionReport struct {
	Dates []Date
	Count int
}

type LowestPoint struct {
	Amount decimal.Decimal
	Date   Date
}

// CollisionThreshold is the number of same-day bills that counts as a
// collision.
const CollisionThreshold = 2

// DetectRisks scans snapshots in order. Empty input gives an empty report.
func DetectRisks(snapshots []DaySnapshot, safetyBuffer decimal.Decimal) RiskReport {
	var report RiskReport
	for _, s := range snapshots {
		if s.EndingBalance.LessThan(safetyBuffer) {
			report.LowBalanceDays = append(report.LowBalanceDays, s.Date)
		}
		if s.EndingBalance.IsNegative() {
			report.OverdraftDays = append(report.OverdraftDays, s.Date)
		}

		if bills := s.Bills(); bills >= CollisionThreshold {
			total := decimal.Zero
			for _, o := range s.Occurrences {
				if o.SourceKind == KindBill {
					total = total.Add(o.Amount)
				}
			}
			report.Collisions = append(report.Collisions, Collision{
				Date:            s.Date,
				OccurrenceCount: bills,
				Total:           total,
			})
		}

		if report.LowestPoint == nil || s.EndingBalance.LessThan(report.LowestPoint.Amount) {
			report.LowestPoint = &LowestPoint{Amount: s.EndingBalance, Date: s.Date}
		}
	}
	return report
}

// CollisionSummary flattens the collisions into dates plus a count.
func (r RiskReport) CollisionSummary() CollisionReport {
	out := CollisionReport{Count: len(r.Collisions)}
	for _, c := range r.Collisions {
		out.Dates = append(out.Dates, c.Date)
	}
	return out
}

// HasRisk is true if any day is low, overdrawn or has a collision.
func (r RiskReport) HasRisk() bool {
	return len(r.LowBalanceDays) > 0 || len(r.OverdraftDays) > 0 || len(r.Collisions) > 0
}
