package nn

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"scalar-grad-explorer/autograd"
)

// Layer is a set of neurons that all see the same input vector.
type Layer struct {
	ID      string
	Name    string
	Neurons []*Neuron
}

// NewLayer creates neuronCount neurons, each accepting inputWidth inputs.
func NewLayer(inputWidth, neuronCount int, name string, act Activation, rng *rand.Rand) *Layer {
	return newLayer(inputWidth, neuronCount, name, act, newRand(rng))
}

func newLayer(inputWidth, neuronCount int, name string, act Activation, rng *rand.Rand) *Layer {
	l := &Layer{
		ID:      uuid.NewString(),
		Name:    name,
		Neurons: make([]*Neuron, neuronCount),
	}
	for i := range l.Neurons {
		l.Neurons[i] = newNeuron(inputWidth, fmt.Sprintf("%s.n%d", name, i), l.ID, act, rng)
	}
	return l
}

// InputWidth is the number of inputs every neuron of the layer expects.
func (l *Layer) InputWidth() int {
	if len(l.Neurons) == 0 {
		return 0
	}
	return len(l.Neurons[0].Weights)
}

// Call applies the inputs to every neuron and returns one output per neuron.
func (l *Layer) Call(inputs []*autograd.Value) ([]*autograd.Value, error) {
	outs := make([]*autograd.Value, len(l.Neurons))
	for i, n := range l.Neurons {
		out, err := n.Call(inputs)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %s", l.Name)
		}
		outs[i] = out
	}
	return outs, nil
}

// CallFloats wraps raw inputs once and feeds them to every neuron.
func (l *Layer) CallFloats(xs []float64) ([]*autograd.Value, error) {
	return l.Call(Inputs(xs))
}

// Parameters returns every neuron's parameters in neuron order.
func (l *Layer) Parameters() []*autograd.Value {
	var params []*autograd.Value
	for _, n := range l.Neurons {
		params = append(params, n.Parameters()...)
	}
	return params
}
