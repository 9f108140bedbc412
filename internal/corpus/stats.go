package corpus

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary describes the shape of a parsed corpus.
type Summary struct {
	Lines         int
	Chars         int
	DistinctChars int
	MeanLen       float64
	StddevLen     float64
	P50Len        float64
	P90Len        float64
	MaxLen        int
}

// Stats computes line-length statistics over a parsed corpus.
func Stats(lines []string) Summary {
	s := Summary{Lines: len(lines)}
	if len(lines) == 0 {
		return s
	}

	seen := make(map[rune]struct{})
	lengths := make([]float64, len(lines))
	for i, line := range lines {
		n := 0
		for _, r := range line {
			seen[r] = struct{}{}
			n++
		}
		lengths[i] = float64(n)
		s.Chars += n
		if n > s.MaxLen {
			s.MaxLen = n
		}
	}
	s.DistinctChars = len(seen)

	sort.Float64s(lengths)
	s.MeanLen = stat.Mean(lengths, nil)
	if len(lengths) > 1 {
		s.StddevLen = stat.StdDev(lengths, nil)
	}
	s.P50Len = stat.Quantile(0.5, stat.Empirical, lengths, nil)
	s.P90Len = stat.Quantile(0.9, stat.Empirical, lengths, nil)
	return s
}
