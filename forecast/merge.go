package forecast

import "sort"

// Merge flattens per-item occurrence lists into one list ordered by date.
// The sort is stable and nothing is deduplicated; ordering within a day is
// left to Simulate.
func Merge(sequences [][]Occurrence) []Occurrence {
	total := 0
	for _, seq := range sequences {
		total += len(seq)
	}
	merged := make([]Occurrence, 0, total)
	for _, seq := range sequences {
		merged = append(merged, seq...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})
	return merged
}
