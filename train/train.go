package train

import (
	"log"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"scalar-grad-explorer/autograd"
)

// Model is anything that maps raw inputs to output nodes and exposes its
// trainable leaves in a stable order.
type Model interface {
	CallFloats(xs []float64) ([]*autograd.Value, error)
	Parameters() []*autograd.Value
}

// Config controls a gradient descent run.
//
// - iterations: number of forward/backward/update cycles
// - step_size: how far each parameter moves against its gradient
// - log_every: log the loss every N iterations (0 disables logging)
type Config struct {
	Iterations int     `json:"iterations"`
	StepSize   float64 `json:"step_size"`
	LogEvery   int     `json:"log_every"`
}

// Result holds the outputs and loss of the final iteration and the loss
// value seen at every iteration.
type Result struct {
	Outputs [][]*autograd.Value
	Loss    *autograd.Value
	History []float64
}

// InitialLoss is the loss of the first iteration.
func (r *Result) InitialLoss() float64 { return r.History[0] }

// FinalLoss is the loss of the last iteration.
func (r *Result) FinalLoss() float64 { return r.History[len(r.History)-1] }

// BestLoss is the smallest loss seen during the run.
func (r *Result) BestLoss() float64 { return floats.Min(r.History) }

// NonIncreasingSteps counts iterations whose loss did not exceed the
// previous iteration's.
func (r *Result) NonIncreasingSteps() int {
	n := 0
	for i := 1; i < len(r.History); i++ {
		if r.History[i] <= r.History[i-1] {
			n++
		}
	}
	return n
}

// Values returns the data of every output node.
func (r *Result) Values() [][]float64 {
	out := make([][]float64, len(r.Outputs))
	for i, row := range r.Outputs {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = v.Data
		}
	}
	return out
}

// SquaredError sums (predicted - expected)^2 over every example and output
// position into a single node named "loss".
func SquaredError(outputs [][]*autograd.Value, expected [][]float64) (*autograd.Value, error) {
	if len(outputs) != len(expected) {
		return nil, errors.Errorf("%d output rows for %d expected rows", len(outputs), len(expected))
	}
	loss := autograd.New(0, "loss")
	for i, row := range outputs {
		if len(row) != len(expected[i]) {
			return nil, errors.Errorf("example %d: %d outputs for %d expected values", i, len(row), len(expected[i]))
		}
		for j, out := range row {
			loss = loss.Add(out.Sub(autograd.Const(expected[i][j])).Pow(2)).As("loss")
		}
	}
	return loss, nil
}

// GradientDescent trains model on the examples with plain gradient descent.
//
// Each iteration:
// 1) forward pass over every example (a fresh graph each time)
// 2) summed squared error loss
// 3) zero every parameter gradient
// 4) backward pass from the loss
// 5) data -= step_size * grad for every parameter
func GradientDescent(model Model, inputs, expected [][]float64, cfg Config) (*Result, error) {
	if len(inputs) != len(expected) {
		return nil, errors.Errorf("%d input examples for %d expected outputs", len(inputs), len(expected))
	}
	if cfg.Iterations <= 0 {
		return nil, errors.Errorf("iterations must be positive, got %d", cfg.Iterations)
	}
	if cfg.StepSize < 0 {
		return nil, errors.Errorf("step size must not be negative, got %g", cfg.StepSize)
	}

	params := model.Parameters()
	res := &Result{History: make([]float64, 0, cfg.Iterations)}

	for iter := 0; iter < cfg.Iterations; iter++ {
		outputs := make([][]*autograd.Value, len(inputs))
		for i, x := range inputs {
			out, err := model.CallFloats(x)
			if err != nil {
				return nil, errors.Wrapf(err, "example %d", i)
			}
			outputs[i] = out
		}

		loss, err := SquaredError(outputs, expected)
		if err != nil {
			return nil, err
		}

		autograd.ZeroGrad(params)
		loss.Backward()

		for _, p := range params {
			p.Data -= cfg.StepSize * p.Grad
		}

		res.Outputs = outputs
		res.Loss = loss
		res.History = append(res.History, loss.Data)

		if cfg.LogEvery > 0 && (iter%cfg.LogEvery == 0 || iter == cfg.Iterations-1) {
			log.Printf("train: iteration %d/%d loss=%.6f", iter+1, cfg.Iterations, loss.Data)
		}
	}
	return res, nil
}
