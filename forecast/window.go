package forecast

// =============================================================================
// WINDOW - Inclusive range of calendar days
// =============================================================================

// Window is the inclusive day range [Start, End] a forecast covers.
// A window whose End is before its Start is empty, not an error.
type Window struct {
	Start Date
	End   Date
}

// WindowFromHorizon returns the window of horizonDays days starting at
// start (day 0 = start). A horizon of zero or less gives an empty window.
func WindowFromHorizon(start Date, horizonDays int) Window {
	return Window{Start: start, End: start.AddDays(horizonDays - 1)}
}

// IsEmpty reports whether the window contains no days.
func (w Window) IsEmpty() bool { return w.End.Before(w.Start) }

// Contains returns true if d is within [Start, End].
func (w Window) Contains(d Date) bool {
	return d.AfterOrEqual(w.Start) && d.BeforeOrEqual(w.End)
}

// Len is the number of days in the window.
func (w Window) Len() int {
	if w.IsEmpty() {
		return 0
	}
	return DaysBetween(w.Start, w.End) + 1
}

// Days returns every day in the window in order.
func (w Window) Days() []Date {
	days := make([]Date, 0, w.Len())
	for current := w.Start; current.BeforeOrEqual(w.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

func (w Window) String() string {
	return "[" + w.Start.String() + ", " + w.End.String() + "]"
}
