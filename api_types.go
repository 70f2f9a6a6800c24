package main

import (
	"scalar-grad-explorer/graph"
	"scalar-grad-explorer/nn"
)

// InitRequest is the payload for /api/init.
// It describes the network shape; Seed makes parameter initialisation
// reproducible when set.
type InitRequest struct {
	InputCount int            `json:"input_count"`
	Layers     []nn.LayerSpec `json:"layers"`
	Seed       *int64         `json:"seed,omitempty"`
}

// InitResponse reports the network that was built.
type InitResponse struct {
	Status string `json:"status"`
	Params int    `json:"params"`
	Layers []int  `json:"layers"`
}

// ForwardRequest runs one forward pass on /api/forward.
//
// Backward: also backpropagate from every output so the returned graph
// carries gradients.
type ForwardRequest struct {
	Inputs   []float64 `json:"inputs"`
	Backward bool      `json:"backward"`
}

// ForwardResponse returns the output values and the graph that produced them.
type ForwardResponse struct {
	Outputs []float64    `json:"outputs"`
	Graph   *graph.Graph `json:"graph"`
}

// TrainRequest controls /api/train.
//
// All fields are optional; server uses the demo data set and defaults when
// omitted.
type TrainRequest struct {
	Inputs     [][]float64 `json:"inputs"`
	Expected   [][]float64 `json:"expected"`
	Iterations int         `json:"iterations"`
	StepSize   float64     `json:"step_size"`
}

// TrainResponse summarises one gradient descent run.
type TrainResponse struct {
	Iterations         int         `json:"iterations"`
	Loss               float64     `json:"loss"`
	InitialLoss        float64     `json:"initial_loss"`
	BestLoss           float64     `json:"best_loss"`
	NonIncreasingSteps int         `json:"non_increasing_steps"`
	Outputs            [][]float64 `json:"outputs"`
}

// Parameter is one trainable leaf as shown by /api/parameters.
type Parameter struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Data     float64 `json:"data"`
	Grad     float64 `json:"grad"`
	NeuronID string  `json:"neuron_id"`
	LayerID  string  `json:"layer_id"`
}

// ExpressionRequest selects options for /api/expression.
type ExpressionRequest struct {
	Length   float64 `json:"length"`
	Width    float64 `json:"width"`
	Backward bool    `json:"backward"`
}

// ExpressionResponse returns the evaluated demo expression.
type ExpressionResponse struct {
	Area  float64      `json:"area"`
	Graph *graph.Graph `json:"graph"`
}
