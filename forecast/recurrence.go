/*
recurrence.go - Recurrence expansion

PURPOSE:
  Turns a RecurringItem (frequency + anchor date) into the concrete
  Occurrences that fall inside a window. Expansion is a pure function of
  its inputs: calling it twice gives the same slice.

RULES:
  one-time, irregular  anchor only, if inside the window
  weekly, biweekly     anchor + k*7 / k*14 days
  semi-monthly         anchor day D: D and D+15 (D <= 15) or D-15 and D
  monthly              anchor + k months, day clamped to month length
  quarterly            anchor + 3k months, clamped
  annually             anchor + 12k months, clamped (Feb 29 -> Feb 28)

  Nothing is emitted before the anchor. Anchors before the window are
  advanced into it.

MONTH CLAMPING:
  Each month-based occurrence is recomputed from the anchor's own day of
  month rather than from the previous occurrence. An item anchored on the
  31st lands on Jan 31, Feb 28, Mar 31, Apr 30: it never drifts down to
  the 28th after February.
*/
package forecast

import "time"

// Expand returns the occurrences of item inside [windowStart, windowEnd],
// in date order. Inactive items and inverted windows yield nothing.
func Expand(item RecurringItem, windowStart, windowEnd Date) []Occurrence {
	w := Window{Start: windowStart, End: windowEnd}
	if w.IsEmpty() || !item.IsActive || item.AnchorDate.IsZero() {
		return nil
	}

	var dates []Date
	switch item.Frequency {
	case FreqOneTime, FreqIrregular:
		if w.Contains(item.AnchorDate) {
			dates = []Date{item.AnchorDate}
		}
	case FreqWeekly:
		dates = expandDays(item.AnchorDate, 7, w)
	case FreqBiweekly:
		dates = expandDays(item.AnchorDate, 14, w)
	case FreqSemiMonthly:
		dates = expandSemiMonthly(item.AnchorDate, w)
	case FreqQuarterly:
		dates = expandMonths(item.AnchorDate, 3, w)
	case FreqAnnually:
		dates = expandMonths(item.AnchorDate, 12, w)
	default: // FreqMonthly and anything unrecognised
		dates = expandMonths(item.AnchorDate, 1, w)
	}

	if len(dates) == 0 {
		return nil
	}
	amount := item.SignedAmount()
	out := make([]Occurrence, 0, len(dates))
	for _, d := range dates {
		out = append(out, Occurrence{
			Date:       d,
			Amount:     amount,
			SourceID:   item.ID,
			SourceName: item.Name,
			SourceKind: item.Kind,
		})
	}
	return out
}

// ExpandAll expands every item over w. Results are per item, unmerged.
func ExpandAll(items []RecurringItem, w Window) [][]Occurrence {
	out := make([][]Occurrence, 0, len(items))
	for _, it := range items {
		if occ := Expand(it, w.Start, w.End); len(occ) > 0 {
			out = append(out, occ)
		}
	}
	return out
}

func expandDays(anchor Date, step int, w Window) []Date {
	d := anchor
	if d.Before(w.Start) {
		// Whole steps only, so the result matches stepping one by one.
		behind := DaysBetween(d, w.Start)
		d = d.AddDays(((behind + step - 1) / step) * step)
	}
	var dates []Date
	for ; d.BeforeOrEqual(w.End); d = d.AddDays(step) {
		dates = append(dates, d)
	}
	return dates
}

func expandMonths(anchor Date, step int, w Window) []Date {
	var dates []Date
	for k := 0; ; k++ {
		d := ClampedDate(anchor.Year, anchor.Month+time.Month(k*step), anchor.Day)
		if d.After(w.End) {
			return dates
		}
		if d.AfterOrEqual(w.Start) {
			dates = append(dates, d)
		}
	}
}

// semiMonthlyDays returns the two days of month derived from the anchor.
func semiMonthlyDays(anchorDay int) (int, int) {
	if anchorDay <= 15 {
		return anchorDay, anchorDay + 15
	}
	return anchorDay - 15, anchorDay
}

func expandSemiMonthly(anchor Date, w Window) []Date {
	first, second := semiMonthlyDays(anchor.Day)
	var dates []Date
	for k := 0; ; k++ {
		month := anchor.Month + time.Month(k)
		for _, day := range [2]int{first, second} {
			d := ClampedDate(anchor.Year, month, day)
			if d.After(w.End) {
				return dates
			}
			if d.Before(anchor) || d.Before(w.Start) {
				continue
			}
			dates = append(dates, d)
		}
	}
}
