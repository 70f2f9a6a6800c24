package autograd

// TopologicalSort orders every node reachable from root so that each node
// appears after all of its children. Shared nodes appear once.
//
// The walk uses an explicit stack so deep graphs cannot exhaust the
// goroutine stack.
func TopologicalSort(root *Value) []*Value {
	type frame struct {
		node     *Value
		expanded bool
	}

	topo := []*Value{}
	visited := make(map[*Value]bool)
	stack := []frame{{node: root}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.expanded {
			topo = append(topo, top.node)
			continue
		}
		if visited[top.node] {
			continue
		}
		visited[top.node] = true

		// Re-push the node so it is emitted once its children are done.
		stack = append(stack, frame{node: top.node, expanded: true})
		// Children pushed in reverse are popped in operand order.
		for i := len(top.node.children) - 1; i >= 0; i-- {
			child := top.node.children[i]
			if !visited[child] {
				stack = append(stack, frame{node: child})
			}
		}
	}
	return topo
}

// Backward performs reverse-mode autodiff from root to all of its ancestors.
//
// Process:
// 1) Build topological order so each node is visited only after its children.
// 2) Optionally zero every visited gradient.
// 3) Seed root gradient with 1 (droot/droot = 1).
// 4) Traverse graph in reverse topological order and accumulate gradients.
//
// Gradients accumulate across calls. Callers reusing parameters across
// traversals must reset them first, either with zeroGrad or ZeroGrad.
func Backward(root *Value, zeroGrad bool) {
	topo := TopologicalSort(root)

	if zeroGrad {
		for _, node := range topo {
			node.Grad = 0
		}
	}

	root.Grad = 1
	for i := len(topo) - 1; i >= 0; i-- {
		topo[i].backwardStep()
	}
}

// Backward runs Backward(v, false).
func (v *Value) Backward() {
	Backward(v, false)
}

// ZeroGrad resets the gradient of every given value.
func ZeroGrad(values []*Value) {
	for _, v := range values {
		v.Grad = 0
	}
}
