package nn

import (
	"fmt"
	"math/rand"

	"github.com/pkg/errors"

	"scalar-grad-explorer/autograd"
)

// LayerSpec configures one layer of an MLP.
//
// - width: number of neurons in the layer
// - activation: linear, sigmoid, tanh or relu (empty means tanh)
type LayerSpec struct {
	Width      int        `json:"width"`
	Activation Activation `json:"activation"`
}

// MLP is a multi-layer perceptron: layers applied one after another.
type MLP struct {
	InputCount int
	Layers     []*Layer
}

// NewMLP builds layers sequentially. Layer i takes as many inputs as layer
// i-1 has neurons; the first layer takes inputCount inputs.
func NewMLP(inputCount int, specs []LayerSpec, rng *rand.Rand) (*MLP, error) {
	if inputCount < 0 {
		return nil, errors.Errorf("input count must not be negative, got %d", inputCount)
	}
	if len(specs) == 0 {
		return nil, errors.New("mlp needs at least one layer")
	}

	rng = newRand(rng)
	m := &MLP{
		InputCount: inputCount,
		Layers:     make([]*Layer, len(specs)),
	}

	width := inputCount
	for i, spec := range specs {
		if spec.Width <= 0 {
			return nil, errors.Errorf("layer %d width must be positive, got %d", i, spec.Width)
		}
		act, err := ParseActivation(string(spec.Activation))
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
		m.Layers[i] = newLayer(width, spec.Width, fmt.Sprintf("l%d", i), act, rng)
		width = spec.Width
	}
	return m, nil
}

// Widths is a shorthand for specs that all use the default activation.
func Widths(widths ...int) []LayerSpec {
	specs := make([]LayerSpec, len(widths))
	for i, w := range widths {
		specs[i] = LayerSpec{Width: w, Activation: Tanh}
	}
	return specs
}

// Call feeds the inputs through every layer and returns the last layer's
// outputs.
func (m *MLP) Call(inputs []*autograd.Value) ([]*autograd.Value, error) {
	if len(inputs) != m.InputCount {
		return nil, &DimensionError{Unit: "mlp", Expected: m.InputCount, Actual: len(inputs)}
	}
	x := inputs
	for _, l := range m.Layers {
		out, err := l.Call(x)
		if err != nil {
			return nil, err
		}
		x = out
	}
	return x, nil
}

// CallFloats wraps raw inputs as input leaves and calls the network.
func (m *MLP) CallFloats(xs []float64) ([]*autograd.Value, error) {
	return m.Call(Inputs(xs))
}

// Parameters returns every layer's parameters in layer order. The order is
// stable between calls.
func (m *MLP) Parameters() []*autograd.Value {
	var params []*autograd.Value
	for _, l := range m.Layers {
		params = append(params, l.Parameters()...)
	}
	return params
}

// OutputCount is the width of the last layer.
func (m *MLP) OutputCount() int {
	return len(m.Layers[len(m.Layers)-1].Neurons)
}
