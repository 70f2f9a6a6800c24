// Package graph exports a computation graph in a shape a visualisation can
// draw directly: one box per value, one circle per operation, and edges
// running child -> op -> result.
package graph

import (
	"fmt"

	"scalar-grad-explorer/autograd"
)

// Node groups.
const (
	GroupValue = "value"
	GroupOp    = "op"
)

// Node is either a value box or an operation circle.
type Node struct {
	ID       string             `json:"id"`
	Group    string             `json:"group"`
	Label    string             `json:"label"`
	Name     string             `json:"name,omitempty"`
	Op       autograd.Operation `json:"op"`
	Data     float64            `json:"data"`
	Grad     float64            `json:"grad"`
	Kind     autograd.Kind      `json:"kind"`
	NeuronID string             `json:"neuron_id,omitempty"`
	LayerID  string             `json:"layer_id,omitempty"`
}

// Edge connects two node ids. Edges carry the grouping ids of the value
// they lead to.
type Edge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	NeuronID string `json:"neuron_id,omitempty"`
	LayerID  string `json:"layer_id,omitempty"`
}

// Graph is a flattened, read-only snapshot of one or more computation graphs.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// opID names the operation node attached to a value.
func opID(v *autograd.Value) string {
	return v.ID() + "/op"
}

// Export snapshots every node reachable from roots. Values shared between
// roots or reached by several paths appear once.
func Export(roots ...*autograd.Value) *Graph {
	g := &Graph{Nodes: []Node{}, Edges: []Edge{}}
	seen := make(map[*autograd.Value]bool)

	for _, root := range roots {
		for _, v := range autograd.TopologicalSort(root) {
			if seen[v] {
				continue
			}
			seen[v] = true
			g.addValue(v)
		}
	}
	return g
}

func (g *Graph) addValue(v *autograd.Value) {
	g.Nodes = append(g.Nodes, Node{
		ID:       v.ID(),
		Group:    GroupValue,
		Label:    fmt.Sprintf("%s\ndata: %.4f\ngrad: %.4f", v.Name, v.Data, v.Grad),
		Name:     v.Name,
		Op:       v.Op(),
		Data:     v.Data,
		Grad:     v.Grad,
		Kind:     v.Kind,
		NeuronID: v.NeuronID,
		LayerID:  v.LayerID,
	})
	if v.IsLeaf() {
		return
	}

	label := string(v.Op())
	if v.Op() == autograd.OpPow {
		label = fmt.Sprintf("pow %g", v.Exponent())
	}
	op := opID(v)
	g.Nodes = append(g.Nodes, Node{
		ID:       op,
		Group:    GroupOp,
		Label:    label,
		Op:       v.Op(),
		Kind:     autograd.KindDefault,
		NeuronID: v.NeuronID,
		LayerID:  v.LayerID,
	})
	g.Edges = append(g.Edges, Edge{From: op, To: v.ID(), NeuronID: v.NeuronID, LayerID: v.LayerID})
	for _, child := range v.Children() {
		g.Edges = append(g.Edges, Edge{From: child.ID(), To: op, NeuronID: v.NeuronID, LayerID: v.LayerID})
	}
}

// Neurons returns the distinct neuron ids present in the graph, in first-seen
// order.
func (g *Graph) Neurons() []string {
	return g.distinct(func(n Node) string { return n.NeuronID })
}

// Layers returns the distinct layer ids present in the graph, in first-seen
// order.
func (g *Graph) Layers() []string {
	return g.distinct(func(n Node) string { return n.LayerID })
}

func (g *Graph) distinct(key func(Node) string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, n := range g.Nodes {
		k := key(n)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		ids = append(ids, k)
	}
	return ids
}

// Lookup finds a node by id.
func (g *Graph) Lookup(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}
