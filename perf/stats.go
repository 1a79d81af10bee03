// Package perf computes classification performance statistics from binned
// network outputs of a signal and a background sample.
//
// None of the functions fail: degenerate histograms (no entries, or bin
// counts that differ) give the documented sentinel values.
package perf

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	// minWidth is the smallest ROC interval, in background efficiency,
	// integrated as one trapezoid.
	minWidth = 0.04

	// klFloor keeps ln(p/q) finite for empty signal bins.
	klFloor = 1e-30
)

// Efficiencies returns, for each bin k, the fraction of entries in bins >= k,
// i.e. the efficiency of the cut "output >= k/N". The curve starts at 1 and
// does not increase. An empty histogram gives the curve of a uniform one,
// 1 - k/N.
func Efficiencies(counts []int) []float64 {
	n := len(counts)
	eff := make([]float64, n)
	if n == 0 {
		return eff
	}

	cum := floats.CumSum(make([]float64, n), toFloats(counts))
	total := cum[n-1]
	if total <= 0 {
		for k := range eff {
			eff[k] = 1 - float64(k)/float64(n)
		}
		return eff
	}

	eff[0] = 1
	for k := 1; k < n; k++ {
		eff[k] = 1 - cum[k-1]/total
	}
	return eff
}

// Power is half the L1 distance between the normalized histograms: 0 when
// they are identical, 1 when they do not overlap. Empty histograms and
// histograms of different length give 0.
func Power(s, b []int) float64 {
	p, q, ok := normalize(s, b)
	if !ok {
		return 0
	}
	return 0.5 * floats.Distance(p, q, 1)
}

// AreaUnderCurve integrates the ROC curve (eb[i], es[i]) with the trapezoid
// rule. Consecutive points are merged until an interval is at least minWidth
// wide in eb, which damps the noise of sparsely filled bins. The curve may be
// traversed in either direction; the magnitude of the area is returned.
func AreaUnderCurve(eb, es []float64) float64 {
	n := min(len(eb), len(es))

	area := 0.0
	i := 0
	for i < n-1 {
		xlo, ylo := eb[i], es[i]
		var xhi, yhi float64
		for i < n-1 {
			xhi, yhi = eb[i+1], es[i+1]
			i++
			if math.Abs(xhi-xlo) >= minWidth {
				break
			}
		}
		area += 0.5 * (yhi + ylo) * (xhi - xlo)
	}
	return math.Abs(area)
}

// KLDivergence is the Kullback-Leibler divergence D(S||B) of the normalized
// histograms, summed over bins where the background is non-zero. It returns
// -1 when either histogram is empty or their lengths differ.
func KLDivergence(s, b []int) float64 {
	p, q, ok := normalize(s, b)
	if !ok {
		return -1
	}

	d := 0.0
	for i := range p {
		if q[i] > 0 {
			d += p[i] * math.Log((p[i]+klFloor)/q[i])
		}
	}
	return d
}

// SymmetricDivergence is min(D(S||B), D(B||S)), or -1 when degenerate.
func SymmetricDivergence(s, b []int) float64 {
	dsb := KLDivergence(s, b)
	if dsb < 0 {
		return -1
	}
	return math.Min(dsb, KLDivergence(b, s))
}

// normalize converts both histograms to unit area.
func normalize(s, b []int) (p, q []float64, ok bool) {
	if len(s) == 0 || len(s) != len(b) {
		return nil, nil, false
	}
	p, q = toFloats(s), toFloats(b)
	sums, sumb := floats.Sum(p), floats.Sum(q)
	if sums <= 0 || sumb <= 0 {
		return nil, nil, false
	}
	floats.Scale(1/sums, p)
	floats.Scale(1/sumb, q)
	return p, q, true
}

func toFloats(counts []int) []float64 {
	out := make([]float64, len(counts))
	for i, c := range counts {
		out[i] = float64(c)
	}
	return out
}
