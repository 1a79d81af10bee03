package ml

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Marker line written between the weights and the input records. The reader
// only looks at its first character.
const inputsMarker = "Inputs"

var fortranExponent = strings.NewReplacer("D", "e", "d", "e")

// Load reads a weight file.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrFileOpen, "%s: %v", path, err)
	}
	defer f.Close()

	m, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return m, nil
}

// Decode parses the line-oriented weight format:
//
//	<three header tokens>
//	<layer sizes>
//	<parameter count>
//	<one weight per line>
//	I...
//	<name mean sigma> | Sigmoid Output | Linear Output
//
// The weight count is not checked here; Evaluate reports ErrBadWeightSize.
func Decode(r io.Reader) (*Model, error) {
	sc := bufio.NewScanner(r)
	m := &Model{Output: Sigmoid}

	// header
	if !sc.Scan() {
		return nil, scanErr(sc, "missing header")
	}

	// layer sizes
	if !sc.Scan() {
		return nil, scanErr(sc, "missing layer sizes")
	}
	for _, tok := range strings.Fields(sc.Text()) {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, errors.Wrapf(ErrBadFormat, "layer size %q", tok)
		}
		m.Layers = append(m.Layers, n)
	}

	// declared parameter count, not trusted
	if !sc.Scan() {
		return nil, scanErr(sc, "missing parameter count")
	}

	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "I") {
			break
		}
		tok := strings.TrimSpace(line)
		if tok == "" {
			continue
		}
		w, err := strconv.ParseFloat(fortranExponent.Replace(tok), 64)
		if err != nil {
			return nil, errors.Wrapf(ErrBadFormat, "weight %d: %q", len(m.Weights), tok)
		}
		m.Weights = append(m.Weights, w)
	}

	for len(m.Names) < m.NumInputs() && sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || setOutputKind(m, line) {
			continue
		}
		if err := addInput(m, line); err != nil {
			return nil, err
		}
	}

	// the writer puts the output kind after the input records
	if sc.Scan() {
		setOutputKind(m, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(ErrFileOpen, "%v", err)
	}
	return m, nil
}

func setOutputKind(m *Model, line string) bool {
	switch line {
	case Sigmoid.String():
		m.Output = Sigmoid
	case Linear.String():
		m.Output = Linear
	default:
		return false
	}
	return true
}

func addInput(m *Model, line string) error {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return errors.Wrapf(ErrBadFormat, "input record %q, want name mean sigma", line)
	}
	mean, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return errors.Wrapf(ErrBadFormat, "mean of %s: %q", fields[0], fields[1])
	}
	sigma, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return errors.Wrapf(ErrBadFormat, "sigma of %s: %q", fields[0], fields[2])
	}
	m.Names = append(m.Names, fields[0])
	m.Mean = append(m.Mean, mean)
	m.Sigma = append(m.Sigma, sigma)
	return nil
}

func scanErr(sc *bufio.Scanner, what string) error {
	if err := sc.Err(); err != nil {
		return errors.Wrapf(ErrFileOpen, "%v", err)
	}
	return errors.Wrap(ErrBadFormat, what)
}

// Save writes m to path in the format read by Load.
func Save(path string, m *Model) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "saving model to %s", path)
	}
	if err := Encode(f, m); err != nil {
		f.Close()
		return errors.Wrapf(err, "saving model to %s", path)
	}
	return f.Close()
}

// Encode writes m in the weight file format. Weights, means and sigmas are
// written in shortest round-trip form so Decode reproduces them exactly.
func Encode(w io.Writer, m *Model) error {
	if err := m.Validate(); err != nil {
		return err
	}
	for _, name := range m.Names {
		if strings.ContainsAny(name, " \t\r\n") {
			return errors.Wrapf(ErrBadName, "input name %q contains whitespace", name)
		}
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# network structure")
	for l, n := range m.Layers {
		if l > 0 {
			bw.WriteByte(' ')
		}
		bw.WriteString(strconv.Itoa(n))
	}
	bw.WriteByte('\n')
	fmt.Fprintln(bw, len(m.Weights))
	for _, x := range m.Weights {
		fmt.Fprintln(bw, formatFloat(x))
	}
	fmt.Fprintln(bw, inputsMarker)
	for i, name := range m.Names {
		fmt.Fprintf(bw, "%s %s %s\n", name, formatFloat(m.Mean[i]), formatFloat(m.Sigma[i]))
	}
	fmt.Fprintln(bw, m.Output)
	return bw.Flush()
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}
