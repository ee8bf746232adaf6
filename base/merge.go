package base

// MergeByTime merges already time-ordered event sequences into one time-ordered sequence
//
// The merge is stable: each input keeps its relative order, and events with equal
// timestamps are emitted from the earlier sequence first. Inputs must themselves be
// sorted by Event.Time, which holds for log directories by construction.
func MergeByTime(sequences ...[]*Event) []*Event {
	total := 0
	for _, seq := range sequences {
		total += len(seq)
	}
	merged := make([]*Event, 0, total)

	heads := make([]int, len(sequences))
	for len(merged) < total {
		next := -1
		for i, seq := range sequences {
			if heads[i] >= len(seq) {
				continue
			}
			if next == -1 || seq[heads[i]].Time.Before(sequences[next][heads[next]].Time) {
				next = i
			}
		}
		merged = append(merged, sequences[next][heads[next]])
		heads[next]++
	}
	return merged
}
