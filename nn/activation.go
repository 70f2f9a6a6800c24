package nn

import (
	"github.com/pkg/errors"

	"scalar-grad-explorer/autograd"
)

// Activation selects the function a Neuron applies to its weighted sum.
// It is a string so layer configuration can travel as JSON.
type Activation string

const (
	Linear  Activation = "linear"
	Sigmoid Activation = "sigmoid"
	Tanh    Activation = "tanh"
	Relu    Activation = "relu"
)

// ParseActivation validates an activation name. The empty name selects Tanh.
func ParseActivation(name string) (Activation, error) {
	switch a := Activation(name); a {
	case "":
		return Tanh, nil
	case Linear, Sigmoid, Tanh, Relu:
		return a, nil
	default:
		return "", errors.Errorf("unknown activation %q", name)
	}
}

// Apply runs the activation on x, extending the graph.
// Unknown activations fall back to Tanh.
func (a Activation) Apply(x *autograd.Value) *autograd.Value {
	switch a {
	case Linear:
		return x
	case Sigmoid:
		return x.Sigmoid()
	case Relu:
		return x.Relu()
	default:
		return x.Tanh()
	}
}
