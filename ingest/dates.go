package ingest

import "time"

// DistributeDates spreads n timestamps linearly across [start, end]: the
// first lands on start, the last on end. A single post is pinned to end.
func DistributeDates(n int, start, end time.Time) []time.Time {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []time.Time{end}
	}
	span := end.Sub(start)
	out := make([]time.Time, n)
	for i := range out {
		// Multiply before dividing so the last index lands exactly on end.
		offset := time.Duration(float64(span) * float64(i) / float64(n-1))
		out[i] = start.Add(offset)
	}
	out[n-1] = end
	return out
}
