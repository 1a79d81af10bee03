package ml

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	LangCPP Language = iota
	LangGo
)

var languageMap = map[string]Language{
	"cpp": LangCPP,
	"c++": LangCPP,
	"go":  LangGo,
}

const banner = "//-----------------------------------------------------------------------"

// names the generator itself declares inside the emitted functions
var generatorLocals = []string{"x", "in", "out", "inp", "math", "std", "double", "float64", "main"}

var reservedWords = strings.Fields(`
	break case chan const continue default defer else fallthrough for func go
	goto if import interface map package range return select struct switch type
	var auto bool char class delete do enum extern float inline int long new
	operator private protected public register short signed sizeof static
	template this throw try typedef union unsigned using virtual void volatile
	while double namespace friend true false nullptr and or not xor explicit
	export mutable typename catch asm decltype constexpr noexcept typeid
	wchar_t dynamic_cast static_cast reinterpret_cast const_cast`)

// names the C++ output already defines or pulls in from <cmath>
var cppTaken = []string{"sigmoid", "sigmoidout", "main", "std", "tanh", "exp"}

var nodeVarPattern = regexp.MustCompile(`^x[0-9]+_[0-9]+$`)

// -------- TYPE DEFINITIONS -------- //
type Language int
type GenOption func(*genConfig)

type genConfig struct {
	lang    Language
	acts    Activations
	pkg     string
	created time.Time
}

// ParseLanguage maps "cpp", "c++" or "go" to a Language.
func ParseLanguage(name string) (Language, error) {
	lang, exists := languageMap[strings.ToLower(name)]
	if !exists {
		return 0, fmt.Errorf("unknown language: %s", name)
	}
	return lang, nil
}

// ------- GENERATOR OPTIONS ------- //
func WithLanguage(lang Language) GenOption {
	return func(c *genConfig) {
		c.lang = lang
	}
}

func WithActivations(acts Activations) GenOption {
	return func(c *genConfig) {
		c.acts = acts
	}
}

// WithPackage sets the package clause of generated Go code.
func WithPackage(pkg string) GenOption {
	return func(c *genConfig) {
		c.pkg = pkg
	}
}

// WithTimestamp records a creation time in the header comment.
// Without it the output depends only on the model and the arguments.
func WithTimestamp(t time.Time) GenOption {
	return func(c *genConfig) {
		c.created = t
	}
}

// generator writes one standalone network function.
type generator struct {
	m    *Model
	cfg  genConfig
	b    strings.Builder
	vars []string // sanitized input names

	hidden, output string // activation helpers
	entry          string // array in, array out
	scalar, slice  string // convenience wrappers
}

// Generate emits source code computing the same function as Evaluate with
// the same activations: two activation helpers, an array-in/array-out entry
// point and two convenience wrappers (named scalars, and a sequence).
func Generate(m *Model, name string, titles []string, opts ...GenOption) (string, error) {
	cfg := genConfig{lang: LangCPP, acts: ActivationsFor(m.Output)}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := checkGeneratable(m, name, titles); err != nil {
		return "", err
	}

	g := &generator{m: m, cfg: cfg}
	if err := g.symbols(name); err != nil {
		return "", err
	}
	vars, err := inputIdentifiers(m.Names, g.declared())
	if err != nil {
		return "", err
	}
	g.vars = vars

	g.header(name, titles)
	g.preamble()
	g.activation(g.hidden, cfg.acts.Hidden)
	g.activation(g.output, cfg.acts.Output)
	g.entryPoint()
	g.scalarWrapper()
	g.sliceWrapper()
	return g.b.String(), nil
}

func checkGeneratable(m *Model, name string, titles []string) error {
	if err := m.Validate(); err != nil {
		return err
	}
	// all of these end up in // comments
	for _, s := range append(append([]string{name}, titles...), m.Names...) {
		if strings.ContainsAny(s, "\r\n") {
			return errors.Wrapf(ErrBadName, "%q contains a line break", s)
		}
	}
	if len(m.Weights) == 0 || len(m.Weights) != m.WeightCount() {
		return errors.Wrapf(ErrBadWeightSize, "have %d weights, topology %v needs %d", len(m.Weights), m.Layers, m.WeightCount())
	}
	for j, s := range m.Sigma {
		if s == 0 {
			return errors.Wrapf(ErrBadScale, "sigma of input %d is zero", j)
		}
	}
	for _, vs := range [][]float64{m.Weights, m.Mean, m.Sigma} {
		for i, v := range vs {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.Wrapf(ErrBadFormat, "value %d is %v and cannot be written as a literal", i, v)
			}
		}
	}
	return nil
}

func (g *generator) symbols(name string) error {
	fn := identifier(name)
	if fn == "" || strings.Trim(fn, "_") == "" {
		return errors.Wrapf(ErrBadName, "function name %q", name)
	}
	if g.cfg.lang == LangGo {
		exported := strings.ToUpper(fn[:1]) + fn[1:]
		unexported := strings.ToLower(fn[:1]) + fn[1:]
		g.hidden, g.output = unexported+"Sigmoid", unexported+"SigmoidOut"
		g.entry, g.scalar, g.slice = "Jn"+exported, exported, exported+"Slice"
		if g.cfg.pkg == "" {
			g.cfg.pkg = strings.ToLower(fn)
		}
		if g.cfg.pkg == "main" || identifier(g.cfg.pkg) != g.cfg.pkg || slices.Contains(reservedWords, g.cfg.pkg) {
			return errors.Wrapf(ErrBadName, "package name %q", g.cfg.pkg)
		}
		return nil
	}
	if slices.Contains(reservedWords, fn) || slices.Contains(cppTaken, fn) {
		return errors.Wrapf(ErrBadName, "function name %q", name)
	}
	g.hidden, g.output = "sigmoid", "sigmoidout"
	g.entry, g.scalar, g.slice = "jn"+fn, fn, fn
	return nil
}

func (g *generator) declared() []string {
	return append([]string{g.hidden, g.output, g.entry, g.scalar, g.slice}, generatorLocals...)
}

// ------- LANGUAGE HELPERS ------- //
func (g *generator) indent() string {
	if g.cfg.lang == LangGo {
		return "\t"
	}
	return "  "
}

func (g *generator) stmt(format string, args ...any) {
	g.b.WriteString(g.indent())
	fmt.Fprintf(&g.b, format, args...)
	if g.cfg.lang == LangCPP {
		g.b.WriteByte(';')
	}
	g.b.WriteByte('\n')
}

func (g *generator) define(name, expr string) {
	if g.cfg.lang == LangGo {
		g.stmt("%s := %s", name, expr)
		return
	}
	g.stmt("double %s = %s", name, expr)
}

func (g *generator) line(format string, args ...any) {
	fmt.Fprintf(&g.b, format, args...)
	g.b.WriteByte('\n')
}

// ------- SECTIONS ------- //
func (g *generator) header(name string, titles []string) {
	g.line(banner)
	g.line("// Function: %s", name)
	for _, title := range titles {
		g.line("//           %s", title)
	}
	g.line("//")
	for i, v := range g.m.Names {
		g.line("//           %40s%12.6g%12.6g", v, g.m.Mean[i], g.m.Sigma[i])
	}
	g.line("//")
	if !g.cfg.created.IsZero() {
		g.line("// Created:  %s", g.cfg.created.Format(time.ANSIC))
	}
	g.line(banner)
}

func (g *generator) preamble() {
	if g.cfg.lang == LangCPP {
		g.line("#include <cmath>")
		g.line("#include <vector>")
		return
	}
	g.line("")
	g.line("package %s", g.cfg.pkg)
	if strings.Contains(g.cfg.acts.Hidden.Expr(LangGo)+g.cfg.acts.Output.Expr(LangGo), "math.") {
		g.line("")
		g.line(`import "math"`)
	}
	g.line("")
}

func (g *generator) activation(name string, act Activation) {
	g.line(banner)
	if g.cfg.lang == LangGo {
		g.line("func %s(x float64) float64 {", name)
		g.stmt("return %s", act.Expr(LangGo))
		g.line("}")
		g.line("")
		return
	}
	g.line("inline")
	g.line("double %s(double x)", name)
	g.line("{")
	g.stmt("return %s", act.Expr(LangCPP))
	g.line("}")
	g.line("")
}

func (g *generator) entryPoint() {
	nin, nout := g.m.NumInputs(), g.m.NumOutputs()

	g.line(banner)
	if g.cfg.lang == LangGo {
		g.line("func %s(in *[%d]float64, out *[%d]float64) {", g.entry, nin, nout)
		g.stmt("var x float64")
	} else {
		g.line("void %s(const double in[%d], double out[%d])", g.entry, nin, nout)
		g.line("{")
		g.stmt("double x")
	}
	g.line("")

	prev := make([]string, nin)
	for j := range prev {
		prev[j] = nodeVar(0, j)
		g.define(prev[j], fmt.Sprintf("(in[%d] - (%s)) / %s", j, formatFloat(g.m.Mean[j]), formatFloat(g.m.Sigma[j])))
	}

	last := len(g.m.Layers) - 1
	for l := 1; l <= last; l++ {
		// the weights were checked, so the layer always fits
		w, _ := g.m.Layer(l)
		act := g.hidden
		if l == last {
			act = g.output
		}

		cur := make([]string, g.m.Layers[l])
		for i := range cur {
			row := w.RawRowView(i)
			g.b.WriteString(g.indent())
			g.line("// Layer %d, Node %d", l, i)
			g.stmt("x = %s", formatFloat(row[0]))
			for j, v := range prev {
				g.stmt("x = x %s", weightedTerm(row[j+1], v))
			}
			cur[i] = nodeVar(l, i)
			g.define(cur[i], act+"(x)")
		}
		prev = cur
	}

	for i, v := range prev {
		g.stmt("out[%d] = %s", i, v)
	}
	g.line("}")
	g.line("")
}

func (g *generator) scalarWrapper() {
	nin, nout := g.m.NumInputs(), g.m.NumOutputs()

	g.line(banner)
	params := make([]string, nin)
	for i, v := range g.vars {
		if g.cfg.lang == LangGo {
			params[i] = v + " float64"
		} else {
			params[i] = "double " + v
		}
	}

	var sig string
	if g.cfg.lang == LangGo {
		sig = "func " + g.scalar + "("
	} else {
		sig = "double " + g.scalar + "("
	}
	cont := strings.Repeat(" ", len(sig))
	if g.cfg.lang == LangGo {
		cont = "\t"
	}
	closing := ")"
	if g.cfg.lang == LangGo {
		closing = ") float64 {"
	}
	if nin == 1 {
		g.line("%s%s%s", sig, params[0], closing)
	} else {
		for i, p := range params {
			switch {
			case i == 0:
				g.line("%s%s,", sig, p)
			case i < nin-1:
				g.line("%s%s,", cont, p)
			default:
				g.line("%s%s%s", cont, p, closing)
			}
		}
	}

	if g.cfg.lang == LangGo {
		g.stmt("var in [%d]float64", nin)
		g.stmt("var out [%d]float64", nout)
	} else {
		g.line("{")
		g.stmt("double in[%d]", nin)
		g.stmt("double out[%d]", nout)
	}
	for i, v := range g.vars {
		g.stmt("in[%d] = %s", i, v)
	}
	if g.cfg.lang == LangGo {
		g.stmt("%s(&in, &out)", g.entry)
	} else {
		g.stmt("%s(in, out)", g.entry)
	}
	g.stmt("return out[0]")
	g.line("}")
	g.line("")
}

func (g *generator) sliceWrapper() {
	nin, nout := g.m.NumInputs(), g.m.NumOutputs()

	g.line(banner)
	if g.cfg.lang == LangGo {
		g.line("func %s(inp []float64) float64 {", g.slice)
		g.stmt("var in [%d]float64", nin)
		g.stmt("var out [%d]float64", nout)
		g.stmt("copy(in[:], inp)")
		g.stmt("%s(&in, &out)", g.entry)
	} else {
		g.line("double %s(std::vector<double>& inp)", g.slice)
		g.line("{")
		g.stmt("double out[%d]", nout)
		g.stmt("%s(&inp[0], out)", g.entry)
	}
	g.stmt("return out[0]")
	g.line("}")
}

func nodeVar(layer, node int) string {
	return fmt.Sprintf("x%d_%d", layer, node)
}

func weightedTerm(w float64, v string) string {
	if w > 0 {
		return fmt.Sprintf("+ %s*%s", formatFloat(w), v)
	}
	return fmt.Sprintf("- %s*%s", formatFloat(math.Abs(w)), v)
}

// ------- IDENTIFIERS ------- //

// identifier maps s onto [A-Za-z_][A-Za-z0-9_]*, replacing anything else by '_'.
func identifier(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if b.Len() == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// inputIdentifiers turns input names into wrapper parameter names that are
// distinct and cannot shadow anything the generated code uses.
func inputIdentifiers(names, declared []string) ([]string, error) {
	taken := make(map[string]bool, len(declared)+len(reservedWords))
	for _, w := range declared {
		taken[w] = true
	}
	for _, w := range reservedWords {
		taken[w] = true
	}

	seen := make(map[string]string, len(names))
	vars := make([]string, len(names))
	for i, name := range names {
		v := identifier(name)
		if v == "" {
			return nil, errors.Wrapf(ErrBadName, "input %d has an empty name", i)
		}
		for taken[v] || nodeVarPattern.MatchString(v) {
			v += "_"
		}
		if other, dup := seen[v]; dup {
			return nil, errors.Wrapf(ErrBadName, "inputs %q and %q both map to %s", other, name, v)
		}
		seen[v] = name
		vars[i] = v
	}
	return vars, nil
}
