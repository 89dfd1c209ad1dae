package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func format(ts []time.Time) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Format("2006-01-02")
	}
	return out
}

func TestDistributeDates(t *testing.T) {
	start, end := day("2020-01-01"), day("2025-11-08")

	tests := []struct {
		name string
		n    int
		want []string
	}{
		{"none", 0, []string{}},
		{"single pinned to end", 1, []string{"2025-11-08"}},
		{"two at the edges", 2, []string{"2020-01-01", "2025-11-08"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, format(DistributeDates(tt.n, start, end)))
		})
	}
}

func TestDistributeDatesLinear(t *testing.T) {
	got := DistributeDates(5, day("2024-01-01"), day("2024-01-09"))
	require.Len(t, got, 5)
	assert.Equal(t, []string{"2024-01-01", "2024-01-03", "2024-01-05", "2024-01-07", "2024-01-09"}, format(got))
}

func TestDistributeDatesMonotonic(t *testing.T) {
	got := DistributeDates(300, day("2020-01-01"), day("2025-11-08"))
	require.Len(t, got, 300)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Before(got[i-1]), "index %d", i)
	}
	assert.Equal(t, day("2025-11-08"), got[len(got)-1])
}
