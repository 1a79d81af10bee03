package ml

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Global sink to prevent compiler optimizations
var resultOut float64

// smallNet is a 2-2-1 network with hand-picked weights.
func smallNet(t testing.TB) *Model {
	m, err := NewModel([]string{"x", "y"}, 2, Sigmoid)
	require.NoError(t, err)
	require.NoError(t, m.SetWeights([]float64{
		0.1, 0.2, -0.3, // hidden node 0
		-0.1, 0.4, 0.5, // hidden node 1
		0.05, 0.6, -0.7, // output
	}))
	return m
}

func TestEvaluateByHand(t *testing.T) {
	m := smallNet(t)

	h0 := math.Tanh(0.1 + 0.2*0.5 - 0.3*-0.5)
	h1 := math.Tanh(-0.1 + 0.4*0.5 + 0.5*-0.5)
	want := 1 / (1 + math.Exp(-2*(0.05+0.6*h0-0.7*h1)))

	out, err := m.Evaluate([]float64{0.5, -0.5})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, want, out[0], 1e-12)
	assert.InDelta(t, 0.67086, out[0], 1e-5)
}

func TestEvaluateStandardizes(t *testing.T) {
	m := smallNet(t)
	want, err := m.Predict([]float64{0.5, -0.5})
	require.NoError(t, err)

	require.NoError(t, m.SetScale([]float64{1, 2}, []float64{2, 4}))
	got, err := m.Predict([]float64{2, 0})
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-12)

	z, err := EvaluateStandardized(m, []float64{0.5, -0.5}, ActivationsFor(Sigmoid))
	require.NoError(t, err)
	assert.InDelta(t, want, z[0], 1e-12)
}

func TestEvaluateInputSize(t *testing.T) {
	m := smallNet(t)
	_, err := m.Evaluate([]float64{1})
	assert.ErrorIs(t, err, ErrBadInputSize)
	_, err = m.Evaluate([]float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrBadInputSize)
}

func TestEvaluateWeightSize(t *testing.T) {
	m := smallNet(t)
	m.Weights = m.Weights[:7]
	_, err := m.Evaluate([]float64{0, 0})
	assert.ErrorIs(t, err, ErrBadWeightSize)

	m.Weights = append(smallNet(t).Weights, 1)
	_, err = m.Evaluate([]float64{0, 0})
	assert.ErrorIs(t, err, ErrBadWeightSize)

	m.Weights = nil
	_, err = m.Evaluate([]float64{0, 0})
	assert.ErrorIs(t, err, ErrBadWeightSize)
}

func TestEvaluateBadScale(t *testing.T) {
	m := smallNet(t)
	m.Sigma = m.Sigma[:1]
	_, err := m.Evaluate([]float64{0, 0})
	assert.ErrorIs(t, err, ErrBadScale)
}

func TestOutputRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	m, err := NewModel([]string{"a", "b", "c"}, 5, Sigmoid)
	require.NoError(t, err)
	w := make([]float64, m.WeightCount())
	for i := range w {
		w[i] = 4 * rng.NormFloat64()
	}
	require.NoError(t, m.SetWeights(w))

	lin := *m
	lin.Output = Linear

	sawOutside := false
	for trial := 0; trial < 200; trial++ {
		in := []float64{3 * rng.NormFloat64(), 3 * rng.NormFloat64(), 3 * rng.NormFloat64()}
		o, err := m.Predict(in)
		require.NoError(t, err)
		assert.True(t, o >= 0 && o <= 1, "sigmoid output %v", o)

		x, err := lin.Predict(in)
		require.NoError(t, err)
		// the logistic output is a monotone map of the linear one
		assert.InDelta(t, 1/(1+math.Exp(-2*x)), o, 1e-12)
		if x < 0 || x > 1 {
			sawOutside = true
		}
	}
	assert.True(t, sawOutside, "linear output never left [0,1]")
}

func TestEvaluateAfterSetWeights(t *testing.T) {
	m := smallNet(t)
	before, err := m.Predict([]float64{0.5, -0.5})
	require.NoError(t, err)

	w := append([]float64(nil), m.Weights...)
	w[6] += 1
	require.NoError(t, m.SetWeights(w))
	after, err := m.Predict([]float64{0.5, -0.5})
	require.NoError(t, err)
	assert.Greater(t, after, before)

	assert.ErrorIs(t, m.SetWeights(w[:3]), ErrBadWeightSize)
}

func TestEvaluateDeepNetwork(t *testing.T) {
	m := &Model{
		Layers: []int{1, 1, 1, 1},
		Names:  []string{"x"},
		Mean:   []float64{0},
		Sigma:  []float64{1},
		Output: Linear,
	}
	require.NoError(t, m.SetWeights([]float64{0, 1, 0, 1, 0.5, 2}))

	out, err := m.Predict([]float64{0.3})
	require.NoError(t, err)
	assert.InDelta(t, 0.5+2*math.Tanh(math.Tanh(0.3)), out, 1e-12)
}

func TestCustomActivations(t *testing.T) {
	m := smallNet(t)
	lin, err := ParseActivation("linear")
	require.NoError(t, err)

	out, err := Evaluate(m, []float64{1, 1}, Activations{Hidden: lin, Output: lin})
	require.NoError(t, err)
	// purely linear: w·(W·x + b) + b
	h0 := 0.1 + 0.2 - 0.3
	h1 := -0.1 + 0.4 + 0.5
	assert.InDelta(t, 0.05+0.6*h0-0.7*h1, out[0], 1e-12)

	_, err = ParseActivation("relu")
	assert.Error(t, err)
}

// --- Benchmarks: forward pass ---

func benchmarkOutput(b *testing.B, inputs, hidden int) {
	names := make([]string, inputs)
	for i := range names {
		names[i] = string(rune('a'+i%26)) + string(rune('0'+i/26))
	}
	m, err := NewModel(names, hidden, Sigmoid)
	require.NoError(b, err)
	for i := range m.Weights {
		m.Weights[i] = rand.NormFloat64()
	}
	in := make([]float64, inputs)
	for i := range in {
		in[i] = rand.Float64()
	}

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		resultOut, _ = m.Predict(in)
	}
}

func BenchmarkOutput_10_20(b *testing.B)   { benchmarkOutput(b, 10, 20) }
func BenchmarkOutput_50_100(b *testing.B)  { benchmarkOutput(b, 50, 100) }
func BenchmarkOutput_200_400(b *testing.B) { benchmarkOutput(b, 200, 400) }
