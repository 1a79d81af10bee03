package ml

import (
	"fmt"
	"math"
)

const (
	ActLinear ActivationType = iota
	ActTanh
	ActLogistic
)

const (
	Sigmoid OutputKind = iota
	Linear
)

var activationMap = map[string]ActivationType{
	"linear":   ActLinear,
	"tanh":     ActTanh,
	"logistic": ActLogistic,
}

// -------- TYPE DEFINITIONS -------- //
type ActivationType int

// OutputKind selects the activation of the final layer.
type OutputKind int

// Activation is a squashing function together with its source form, so the
// evaluator and the code generator always agree on what a node computes.
type Activation struct {
	Type ActivationType
}

// Activations holds the strategy for hidden layers and for the output layer.
type Activations struct {
	Hidden Activation
	Output Activation
}

// ActivationsFor returns the standard strategy: tanh on hidden layers and,
// on the output layer, 1/(1+exp(-2x)) for Sigmoid or the identity for Linear.
func ActivationsFor(kind OutputKind) Activations {
	acts := Activations{
		Hidden: Activation{Type: ActTanh},
		Output: Activation{Type: ActLogistic},
	}
	if kind == Linear {
		acts.Output = Activation{Type: ActLinear}
	}
	return acts
}

// ParseActivation looks up an activation by name.
func ParseActivation(name string) (Activation, error) {
	act, exists := activationMap[name]
	if !exists {
		return Activation{}, fmt.Errorf("unknown activation: %s", name)
	}
	return Activation{Type: act}, nil
}

func (a Activation) Apply(x float64) float64 {
	switch a.Type {
	case ActTanh:
		return math.Tanh(x)
	case ActLogistic:
		// logistic form of tanh rescaled into (0,1)
		return 1.0 / (1.0 + math.Exp(-2*x))
	default:
		return x
	}
}

// Expr returns the activation as an expression of x in the given language.
func (a Activation) Expr(lang Language) string {
	switch a.Type {
	case ActTanh:
		if lang == LangGo {
			return "math.Tanh(x)"
		}
		return "tanh(x)"
	case ActLogistic:
		if lang == LangGo {
			return "1.0 / (1.0 + math.Exp(-2*x))"
		}
		return "1.0/(1+exp(-2*x))"
	default:
		return "x"
	}
}

func (a Activation) String() string {
	for name, t := range activationMap {
		if t == a.Type {
			return name
		}
	}
	return "unknown"
}

func (k OutputKind) String() string {
	if k == Linear {
		return "Linear Output"
	}
	return "Sigmoid Output"
}
