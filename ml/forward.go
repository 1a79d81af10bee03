package ml

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Evaluate standardizes raw with the model's mean and sigma and propagates it
// through the network. The result has one value per output node.
func Evaluate(m *Model, raw []float64, acts Activations) ([]float64, error) {
	n := m.NumInputs()
	if len(raw) != n {
		return nil, errors.Wrapf(ErrBadInputSize, "got %d inputs, network has %d", len(raw), n)
	}
	if len(m.Mean) != n || len(m.Sigma) != n {
		return nil, errors.Wrapf(ErrBadScale, "got %d means and %d sigmas for %d inputs", len(m.Mean), len(m.Sigma), n)
	}

	z := make([]float64, n)
	for j, x := range raw {
		z[j] = (x - m.Mean[j]) / m.Sigma[j]
	}
	return EvaluateStandardized(m, z, acts)
}

// EvaluateStandardized propagates inputs that are already standardized.
func EvaluateStandardized(m *Model, z []float64, acts Activations) ([]float64, error) {
	if err := m.checkTopology(); err != nil {
		return nil, err
	}
	if len(z) != m.NumInputs() {
		return nil, errors.Wrapf(ErrBadInputSize, "got %d inputs, network has %d", len(z), m.NumInputs())
	}
	if len(m.Weights) != m.WeightCount() {
		return nil, errors.Wrapf(ErrBadWeightSize, "have %d weights, topology %v needs %d", len(m.Weights), m.Layers, m.WeightCount())
	}

	last := len(m.Layers) - 1
	prev := z
	for l := 1; l <= last; l++ {
		w, err := m.Layer(l)
		if err != nil {
			return nil, err
		}

		act := acts.Hidden
		if l == last {
			act = acts.Output
		}

		out := make([]float64, m.Layers[l])
		for i := range out {
			row := w.RawRowView(i)
			out[i] = act.Apply(row[0] + floats.Dot(row[1:], prev))
		}

		prev = out
	}
	return prev, nil
}

// Evaluate runs the network with the standard activations for its output kind.
func (m *Model) Evaluate(raw []float64) ([]float64, error) {
	return Evaluate(m, raw, ActivationsFor(m.Output))
}

// Predict returns the value of the first (and in practice only) output node.
func (m *Model) Predict(raw []float64) (float64, error) {
	out, err := m.Evaluate(raw)
	if err != nil {
		return 0, err
	}
	return out[0], nil
}
