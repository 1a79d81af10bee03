package ml

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smallNetFile = `# network structure
2 2 1
9
0.1
0.2
-0.3
-0.1
0.4
0.5
0.05
0.6
-0.7
Inputs
x 0 1
y 0 1
Sigmoid Output
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "net.dat")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	m, err := Load(writeFile(t, smallNetFile))
	require.NoError(t, err)

	assert.Equal(t, []int{2, 2, 1}, m.Layers)
	assert.Equal(t, smallNet(t).Weights, m.Weights)
	assert.Equal(t, []string{"x", "y"}, m.Names)
	assert.Equal(t, []float64{0, 0}, m.Mean)
	assert.Equal(t, []float64{1, 1}, m.Sigma)
	assert.Equal(t, Sigmoid, m.Output)

	out, err := m.Predict([]float64{0.5, -0.5})
	require.NoError(t, err)
	assert.InDelta(t, 0.67086, out, 1e-5)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.dat"))
	assert.ErrorIs(t, err, ErrFileOpen)
}

func TestDecodeOutputKind(t *testing.T) {
	linearFirst := strings.Replace(smallNetFile, "Inputs\n", "Inputs\nLinear Output\n", 1)
	linearFirst = strings.Replace(linearFirst, "Sigmoid Output\n", "", 1)
	m, err := Decode(strings.NewReader(linearFirst))
	require.NoError(t, err)
	assert.Equal(t, Linear, m.Output)
	assert.Equal(t, []string{"x", "y"}, m.Names)

	trailing := strings.Replace(smallNetFile, "Sigmoid Output", "Linear Output", 1)
	m, err = Decode(strings.NewReader(trailing))
	require.NoError(t, err)
	assert.Equal(t, Linear, m.Output)

	noKind := strings.Replace(smallNetFile, "Sigmoid Output\n", "", 1)
	m, err = Decode(strings.NewReader(noKind))
	require.NoError(t, err)
	assert.Equal(t, Sigmoid, m.Output)
}

func TestDecodeScale(t *testing.T) {
	scaled := strings.Replace(smallNetFile, "x 0 1\ny 0 1", "x 1.5 2\ny -3 0.25", 1)
	m, err := Decode(strings.NewReader(scaled))
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -3}, m.Mean)
	assert.Equal(t, []float64{2, 0.25}, m.Sigma)
}

func TestDecodeFortranExponent(t *testing.T) {
	src := strings.Replace(smallNetFile, "\n0.2\n", "\n2.0D-01\n", 1)
	m, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	assert.InDelta(t, 0.2, m.Weights[1], 1e-15)
}

func TestDecodeShortWeights(t *testing.T) {
	src := "# network structure\n1 3 1\n10\n1\n2\n3\n4\n5\n6\n7\n8\nInputs\nx 0 1\nSigmoid Output\n"
	m, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	assert.Len(t, m.Weights, 8)

	_, err = m.Evaluate([]float64{0})
	assert.ErrorIs(t, err, ErrBadWeightSize)
}

func TestDecodeMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":       "",
		"no layers":   "# header\n",
		"bad layer":   "# header\n2 two 1\n",
		"no count":    "# header\n2 2 1\n",
		"bad weight":  strings.Replace(smallNetFile, "\n0.2\n", "\nzero\n", 1),
		"bad mean":    strings.Replace(smallNetFile, "x 0 1", "x zero 1", 1),
		"bad sigma":   strings.Replace(smallNetFile, "x 0 1", "x 0 one", 1),
		"short input": strings.Replace(smallNetFile, "x 0 1", "x 0", 1),
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(src))
			assert.ErrorIs(t, err, ErrBadFormat)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := smallNet(t)
	m.Weights[3] = 1.0 / 3
	m.Output = Linear
	require.NoError(t, m.SetScale([]float64{0.1, 1e-7}, []float64{2.5, 123456.789}))

	path := filepath.Join(t.TempDir(), "saved.dat")
	require.NoError(t, Save(path, m))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestEncodeLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, smallNet(t)))
	assert.Equal(t, smallNetFile, buf.String())
}

func TestEncodeRejects(t *testing.T) {
	m := smallNet(t)
	m.Names[0] = "two words"
	assert.ErrorIs(t, Encode(&bytes.Buffer{}, m), ErrBadName)

	m = smallNet(t)
	m.Layers = []int{2}
	assert.ErrorIs(t, Encode(&bytes.Buffer{}, m), ErrBadTopology)
}
