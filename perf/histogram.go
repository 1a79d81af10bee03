package perf

import "math"

// Histogram counts network outputs in equal-width bins over [0, 1].
type Histogram []int

func NewHistogram(nbins int) Histogram {
	return make(Histogram, nbins)
}

// Fill adds x to bin int(x*N). Values outside [0, 1) land in the first or
// last bin.
func (h Histogram) Fill(x float64) {
	n := len(h)
	if n == 0 {
		return
	}
	var bin int
	switch {
	case math.IsNaN(x) || x < 0:
		bin = 0
	case x >= 1:
		bin = n - 1
	default:
		bin = min(int(x*float64(n)), n-1)
	}
	h[bin]++
}

func (h Histogram) Total() int {
	total := 0
	for _, c := range h {
		total += c
	}
	return total
}
