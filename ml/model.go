package ml

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Model is a trained (or freshly created) feed-forward network.
//
// Weights are stored flat: for every layer l >= 1 and every node of that
// layer, one bias followed by Layers[l-1] connection weights.
type Model struct {
	Layers  []int
	Weights []float64

	// Per-input names and standardization statistics.
	Names []string
	Mean  []float64
	Sigma []float64

	Output OutputKind
}

// NewModel creates an untrained single-hidden-layer network with zero
// weights and identity normalization.
func NewModel(names []string, hidden int, kind OutputKind) (*Model, error) {
	m := &Model{
		Layers: []int{len(names), hidden, 1},
		Names:  append([]string(nil), names...),
		Mean:   make([]float64, len(names)),
		Sigma:  make([]float64, len(names)),
		Output: kind,
	}
	for i := range m.Sigma {
		m.Sigma[i] = 1
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.Weights = make([]float64, m.WeightCount())
	return m, nil
}

// WeightCount is the number of weights the topology requires.
func (m *Model) WeightCount() int {
	n := 0
	for l := 1; l < len(m.Layers); l++ {
		n += m.Layers[l] * (m.Layers[l-1] + 1)
	}
	return n
}

func (m *Model) NumInputs() int {
	if len(m.Layers) == 0 {
		return 0
	}
	return m.Layers[0]
}

func (m *Model) NumOutputs() int {
	if len(m.Layers) == 0 {
		return 0
	}
	return m.Layers[len(m.Layers)-1]
}

// SetWeights replaces the weight vector wholesale, e.g. after a training epoch.
func (m *Model) SetWeights(w []float64) error {
	if len(w) != m.WeightCount() {
		return errors.Wrapf(ErrBadWeightSize, "got %d weights, topology %v needs %d", len(w), m.Layers, m.WeightCount())
	}
	m.Weights = append(m.Weights[:0], w...)
	return nil
}

// SetScale installs the per-input normalization statistics.
func (m *Model) SetScale(mean, sigma []float64) error {
	if len(mean) != m.NumInputs() || len(sigma) != m.NumInputs() {
		return errors.Wrapf(ErrBadScale, "got %d means and %d sigmas for %d inputs", len(mean), len(sigma), m.NumInputs())
	}
	m.Mean = append([]float64(nil), mean...)
	m.Sigma = append([]float64(nil), sigma...)
	return nil
}

// Validate checks the topology, the input names and the normalization
// vectors. It does not check the weight count; see Evaluate.
func (m *Model) Validate() error {
	if err := m.checkTopology(); err != nil {
		return err
	}
	if len(m.Names) != m.NumInputs() {
		return errors.Wrapf(ErrBadName, "got %d names for %d inputs", len(m.Names), m.NumInputs())
	}
	seen := make(map[string]bool, len(m.Names))
	for _, name := range m.Names {
		if name == "" || seen[name] {
			return errors.Wrapf(ErrBadName, "input name %q is empty or repeated", name)
		}
		seen[name] = true
	}
	if len(m.Mean) != m.NumInputs() || len(m.Sigma) != m.NumInputs() {
		return errors.Wrapf(ErrBadScale, "got %d means and %d sigmas for %d inputs", len(m.Mean), len(m.Sigma), m.NumInputs())
	}
	return nil
}

func (m *Model) checkTopology() error {
	if len(m.Layers) < 2 {
		return errors.Wrapf(ErrBadTopology, "need at least 2 layers, got %d", len(m.Layers))
	}
	for l, n := range m.Layers {
		if n < 1 {
			return errors.Wrapf(ErrBadTopology, "layer %d has %d nodes", l, n)
		}
	}
	return nil
}

// Layer returns a view of the weights feeding layer l (1 <= l < len(Layers)).
// Row i is node i: its bias in column 0, then one weight per node of layer l-1.
// The view shares storage with m.Weights. Evaluate and Generate both walk the
// network through it.
func (m *Model) Layer(l int) (*mat.Dense, error) {
	if err := m.checkTopology(); err != nil {
		return nil, err
	}
	if l < 1 || l >= len(m.Layers) {
		return nil, errors.Wrapf(ErrBadTopology, "no layer %d in %v", l, m.Layers)
	}
	start := 0
	for k := 1; k < l; k++ {
		start += m.Layers[k] * (m.Layers[k-1] + 1)
	}
	return m.block(l, start)
}

// block slices the weights of layer l starting at the cursor k.
func (m *Model) block(l, k int) (*mat.Dense, error) {
	rows, cols := m.Layers[l], m.Layers[l-1]+1
	if k+rows*cols > len(m.Weights) {
		return nil, errors.Wrapf(ErrBadWeightSize, "layer %d needs weights [%d:%d], have %d", l, k, k+rows*cols, len(m.Weights))
	}
	return mat.NewDense(rows, cols, m.Weights[k:k+rows*cols]), nil
}
