package data

import (
	"gonum.org/v1/gonum/stat"
)

// Target values for the two classes.
const (
	Background = 0.0
	Signal     = 1.0
)

// Sample is one event: the raw network inputs and the desired output.
type Sample struct {
	Inputs []float64
	Target float64
}

// Label attaches the same target to every row.
func Label(rows [][]float64, target float64) []Sample {
	samples := make([]Sample, len(rows))
	for i, row := range rows {
		samples[i] = Sample{Inputs: row, Target: target}
	}
	return samples
}

// Mix interleaves signal and background events, taking the same number n of
// each (fewer if either sample is shorter; all available if n <= 0).
func Mix(sig, bkg []Sample, n int) []Sample {
	k := min(len(sig), len(bkg))
	if n > 0 {
		k = min(k, n)
	}

	out := make([]Sample, 0, 2*k)
	for i := range k {
		out = append(out, sig[i], bkg[i])
	}
	return out
}

// Split returns the first n samples and the rest.
func Split(samples []Sample, n int) (head, tail []Sample) {
	n = max(0, min(n, len(samples)))
	return samples[:n], samples[n:]
}

// Scale returns the population mean and standard deviation of every input.
// A constant input gets sigma 1 so it standardizes to zero instead of NaN.
func Scale(samples []Sample) (mean, sigma []float64) {
	if len(samples) == 0 {
		return nil, nil
	}

	n := len(samples[0].Inputs)
	mean = make([]float64, n)
	sigma = make([]float64, n)

	col := make([]float64, len(samples))
	for j := range n {
		for i, s := range samples {
			col[i] = s.Inputs[j]
		}
		mean[j], sigma[j] = stat.PopMeanStdDev(col, nil)
		if sigma[j] == 0 {
			sigma[j] = 1
		}
	}
	return mean, sigma
}
