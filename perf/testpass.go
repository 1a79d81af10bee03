package perf

import (
	"math"

	"github.com/hbprosper/jetnet/data"
	"github.com/hbprosper/jetnet/ml"
	"github.com/pkg/errors"
)

var (
	ErrNoSamples = errors.New("no samples to test")
	ErrBadBins   = errors.New("number of bins must be positive")
)

// Result summarizes one pass of a network over a labelled sample.
type Result struct {
	Signal     Histogram
	Background Histogram

	EffSignal     []float64
	EffBackground []float64

	Area                float64
	Power               float64
	Divergence          float64
	SymmetricDivergence float64

	// DivergenceByMC is the mean of ln(o/(1-o)) over signal outputs o
	// strictly inside (0, 1), an estimate of D(S||B) for a well-trained
	// network. Zero when there are no such outputs.
	DivergenceByMC float64

	// ErrorRate is the fraction of events on the wrong side of the cut.
	ErrorRate float64
	RMS       float64
}

// Test runs m over every sample. Events with target > 0.5 are signal, the
// rest background.
func Test(m *ml.Model, samples []data.Sample, cut float64, nbins int) (*Result, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	if nbins < 1 {
		return nil, errors.Wrapf(ErrBadBins, "got %d", nbins)
	}

	res := &Result{
		Signal:     NewHistogram(nbins),
		Background: NewHistogram(nbins),
	}

	var sumSq, logRatio float64
	var wrong, nratio int
	for i, s := range samples {
		out, err := m.Predict(s.Inputs)
		if err != nil {
			return nil, errors.Wrapf(err, "sample %d", i)
		}

		d := out - s.Target
		sumSq += d * d

		if s.Target > 0.5 {
			res.Signal.Fill(out)
			if out < cut {
				wrong++
			}
			if out > 0 && out < 1 {
				logRatio += math.Log(out / (1 - out))
				nratio++
			}
		} else {
			res.Background.Fill(out)
			if out > cut {
				wrong++
			}
		}
	}

	n := float64(len(samples))
	res.RMS = math.Sqrt(sumSq / n)
	res.ErrorRate = float64(wrong) / n
	if nratio > 0 {
		res.DivergenceByMC = logRatio / float64(nratio)
	}

	res.EffSignal = Efficiencies(res.Signal)
	res.EffBackground = Efficiencies(res.Background)
	res.Area = AreaUnderCurve(res.EffBackground, res.EffSignal)
	res.Power = Power(res.Signal, res.Background)
	res.Divergence = KLDivergence(res.Signal, res.Background)
	res.SymmetricDivergence = SymmetricDivergence(res.Signal, res.Background)
	return res, nil
}
