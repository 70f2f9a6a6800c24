package main

import (
	"encoding/json"
	"io"
	"log"
	"math/rand"
	"net/http"
	"sync"

	"scalar-grad-explorer/autograd"
	"scalar-grad-explorer/graph"
	"scalar-grad-explorer/nn"
	"scalar-grad-explorer/train"
)

// Demo data set: three inputs mapped to +-1 labels.
var (
	demoInputs = [][]float64{
		{2, 3, -1},
		{3, -1, 0.5},
		{0.5, 1, 1},
		{1, 1, -1},
	}
	demoExpected = [][]float64{{1}, {-1}, {-1}, {1}}
)

const (
	defaultIterations = 500
	maxIterations     = 20000
	defaultStepSize   = 0.01
)

// session is one network plus the lock that serialises every forward,
// backward and update on it. Gradients live on the shared parameter leaves,
// so two passes must never interleave.
type session struct {
	mu  sync.Mutex
	net *nn.MLP
}

// Server owns HTTP handlers and shared application state.
//
// Why separate this from the network?
// - nn is "math + parameters", single threaded.
// - Server is "request handling + lifecycle/state wiring."
type Server struct {
	mu      sync.RWMutex
	current *session
}

// NewServer creates an empty API server.
func NewServer() *Server {
	return &Server{}
}

// RegisterRoutes attaches all endpoints to the provided mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/init", s.handleInit)
	mux.HandleFunc("/api/forward", s.handleForward)
	mux.HandleFunc("/api/train", s.handleTrain)
	mux.HandleFunc("/api/parameters", s.handleParameters)
	mux.HandleFunc("/api/expression", s.handleExpression)
}

// snapshot reads the current session with shared lock.
func (s *Server) snapshot() *session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// setNetwork swaps the active network atomically with exclusive lock.
func (s *Server) setNetwork(net *nn.MLP) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &session{net: net}
}

// writeJSON is a helper to consistently send JSON responses.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeOptionalJSON decodes JSON when body is present.
// Empty bodies are treated as "use defaults" rather than errors.
func decodeOptionalJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == io.EOF {
		return nil
	}
	return err
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req InitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var rng *rand.Rand
	if req.Seed != nil {
		rng = rand.New(rand.NewSource(*req.Seed))
	}
	net, err := nn.NewMLP(req.InputCount, req.Layers, rng)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.setNetwork(net)

	widths := make([]int, len(net.Layers))
	for i, l := range net.Layers {
		widths[i] = len(l.Neurons)
	}
	log.Printf("server: initialised mlp inputs=%d layers=%v params=%d", net.InputCount, widths, len(net.Parameters()))
	writeJSON(w, http.StatusOK, InitResponse{
		Status: "initialized",
		Params: len(net.Parameters()),
		Layers: widths,
	})
}

func (s *Server) handleForward(w http.ResponseWriter, r *http.Request) {
	sess := s.snapshot()
	if sess == nil {
		http.Error(w, "Model not initialized", http.StatusBadRequest)
		return
	}

	req := ForwardRequest{}
	if err := decodeOptionalJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Lock network during forward/backward to avoid concurrent mutation.
	sess.mu.Lock()
	defer sess.mu.Unlock()

	outs, err := sess.net.CallFloats(req.Inputs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Backward && len(outs) > 0 {
		// Backpropagating from each output in turn would push the gradient
		// already held by shared hidden nodes through a second time, so the
		// outputs are summed into one root that is left out of the export.
		root := outs[0]
		for _, out := range outs[1:] {
			root = root.Add(out)
		}
		autograd.ZeroGrad(sess.net.Parameters())
		root.Backward()
	}

	values := make([]float64, len(outs))
	for i, out := range outs {
		values[i] = out.Data
	}
	writeJSON(w, http.StatusOK, ForwardResponse{
		Outputs: values,
		Graph:   graph.Export(outs...),
	})
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	sess := s.snapshot()
	if sess == nil {
		http.Error(w, "Model not initialized", http.StatusBadRequest)
		return
	}

	req := TrainRequest{}
	if err := decodeOptionalJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	inputs, expected := req.Inputs, req.Expected
	if len(inputs) == 0 && len(expected) == 0 {
		inputs, expected = demoInputs, demoExpected
	}
	cfg := train.Config{Iterations: req.Iterations, StepSize: req.StepSize}
	if cfg.Iterations <= 0 {
		cfg.Iterations = defaultIterations
	}
	if cfg.Iterations > maxIterations {
		cfg.Iterations = maxIterations
	}
	if cfg.StepSize <= 0 {
		cfg.StepSize = defaultStepSize
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	res, err := train.GradientDescent(sess.net, inputs, expected, cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.Printf("server: trained %d iterations loss %.6f -> %.6f", cfg.Iterations, res.InitialLoss(), res.FinalLoss())
	writeJSON(w, http.StatusOK, TrainResponse{
		Iterations:         cfg.Iterations,
		Loss:               res.FinalLoss(),
		InitialLoss:        res.InitialLoss(),
		BestLoss:           res.BestLoss(),
		NonIncreasingSteps: res.NonIncreasingSteps(),
		Outputs:            res.Values(),
	})
}

func (s *Server) handleParameters(w http.ResponseWriter, r *http.Request) {
	sess := s.snapshot()
	if sess == nil {
		http.Error(w, "Model not initialized", http.StatusBadRequest)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	params := sess.net.Parameters()
	out := make([]Parameter, len(params))
	for i, p := range params {
		out[i] = Parameter{
			ID:       p.ID(),
			Name:     p.Name,
			Data:     p.Data,
			Grad:     p.Grad,
			NeuronID: p.NeuronID,
			LayerID:  p.LayerID,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleExpression evaluates area = length * width. It needs no network.
func (s *Server) handleExpression(w http.ResponseWriter, r *http.Request) {
	req := ExpressionRequest{}
	if err := decodeOptionalJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Length == 0 {
		req.Length = 15
	}
	if req.Width == 0 {
		req.Width = 200
	}

	length := autograd.New(req.Length, "length")
	width := autograd.New(req.Width, "width")
	area := length.Mul(width).As("area")
	if req.Backward {
		area.Backward()
	}
	writeJSON(w, http.StatusOK, ExpressionResponse{
		Area:  area.Data,
		Graph: graph.Export(area),
	})
}
