package nn

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"scalar-grad-explorer/autograd"
)

// Neuron is one weighted-sum-plus-activation unit.
//
// The same weight and bias leaves are reused on every call, so gradients
// from successive backward passes land on the same parameters.
type Neuron struct {
	ID         string
	Name       string
	LayerID    string
	Weights    []*autograd.Value
	Bias       *autograd.Value
	Activation Activation
}

// newRand returns rng, or a time-seeded source when rng is nil.
func newRand(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// uniform draws from [min, max).
func uniform(rng *rand.Rand, min, max float64) float64 {
	return rng.Float64()*(max-min) + min
}

// NewNeuron creates a neuron accepting inputCount inputs. Weights and bias
// are drawn uniformly from [-1, 1) using rng; a nil rng is seeded from the
// clock.
func NewNeuron(inputCount int, name string, act Activation, rng *rand.Rand) *Neuron {
	return newNeuron(inputCount, name, "", act, newRand(rng))
}

func newNeuron(inputCount int, name, layerID string, act Activation, rng *rand.Rand) *Neuron {
	if act == "" {
		act = Tanh
	}
	n := &Neuron{
		ID:         uuid.NewString(),
		Name:       name,
		LayerID:    layerID,
		Weights:    make([]*autograd.Value, inputCount),
		Activation: act,
	}
	for i := range n.Weights {
		n.Weights[i] = n.param(uniform(rng, -1, 1), fmt.Sprintf("%s.w%d", name, i))
	}
	n.Bias = n.param(uniform(rng, -1, 1), name+".b")
	return n
}

func (n *Neuron) param(data float64, name string) *autograd.Value {
	p := autograd.New(data, name).Within(n.ID, n.LayerID)
	p.Kind = autograd.KindWeight
	return p
}

// Call applies the inputs to the neuron:
// out = act(bias + w0*x0 + w1*x1 + ...)
// summed left to right.
func (n *Neuron) Call(inputs []*autograd.Value) (*autograd.Value, error) {
	if len(inputs) != len(n.Weights) {
		return nil, &DimensionError{
			Unit:     "neuron " + n.Name,
			Expected: len(n.Weights),
			Actual:   len(inputs),
		}
	}

	act := n.Bias
	for i, w := range n.Weights {
		act = act.Add(w.Mul(inputs[i]).As(w.Name + ".wtd"))
	}

	out := n.Activation.Apply(act)
	if out == n.Bias {
		// A linear neuron without inputs must not rename its own bias.
		out = out.Add(autograd.Const(0))
	}
	out.As(n.Name + ".out")
	out.Kind = autograd.KindOutput
	return out, nil
}

// CallFloats wraps raw inputs as fresh input leaves and calls the neuron.
func (n *Neuron) CallFloats(xs []float64) (*autograd.Value, error) {
	return n.Call(Inputs(xs))
}

// Parameters returns the weights followed by the bias.
func (n *Neuron) Parameters() []*autograd.Value {
	params := make([]*autograd.Value, 0, len(n.Weights)+1)
	params = append(params, n.Weights...)
	return append(params, n.Bias)
}

// Inputs converts raw numbers into leaves of kind input named x0, x1, ...
func Inputs(xs []float64) []*autograd.Value {
	out := make([]*autograd.Value, len(xs))
	for i, x := range xs {
		out[i] = autograd.New(x, fmt.Sprintf("x%d", i))
		out[i].Kind = autograd.KindInput
	}
	return out
}
