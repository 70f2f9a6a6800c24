package autograd

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/diff/fd"
)

const (
	tol   = 1e-9
	fdTol = 1e-4
)

func approx(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func TestForwardValues(t *testing.T) {
	x, y := 3.0, -1.5
	cases := []struct {
		name string
		got  func(a, b *Value) *Value
		want float64
		op   Operation
	}{
		{"add", (*Value).Add, x + y, OpAdd},
		{"sub", (*Value).Sub, x - y, OpSub},
		{"mul", (*Value).Mul, x * y, OpMul},
		{"div", (*Value).Div, x / y, OpDiv},
		{"pow", func(a, _ *Value) *Value { return a.Pow(3) }, x * x * x, OpPow},
		{"exp", func(a, _ *Value) *Value { return a.Exp() }, math.Exp(x), OpExp},
		{"tanh", func(a, _ *Value) *Value { return a.Tanh() }, math.Tanh(x), OpTanh},
		{"relu", func(_, b *Value) *Value { return b.Relu() }, 0, OpRelu},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := c.got(New(x, "a"), New(y, "b"))
			if r.Data != c.want {
				t.Errorf("data = %v, want %v", r.Data, c.want)
			}
			if r.Op() != c.op {
				t.Errorf("op = %q, want %q", r.Op(), c.op)
			}
			if r.Grad != 0 {
				t.Errorf("fresh grad = %v, want 0", r.Grad)
			}
		})
	}
}

func TestLeafAndConst(t *testing.T) {
	v := Const(-1)
	if !v.IsLeaf() || v.Op() != OpAssign {
		t.Fatalf("Const should be an assignment leaf, got op %q", v.Op())
	}
	if v.Name != "-1.00" {
		t.Errorf("Const name = %q", v.Name)
	}
	if v.ID() == "" || v.ID() == New(0, "").ID() {
		t.Errorf("ids should be unique and non-empty")
	}
}

func TestChildrenAreOrderedAndCopied(t *testing.T) {
	a, b := New(1, "a"), New(2, "b")
	r := a.Sub(b)
	kids := r.Children()
	if len(kids) != 2 || kids[0] != a || kids[1] != b {
		t.Fatalf("children = %v", kids)
	}
	kids[0] = b
	if r.Children()[0] != a {
		t.Errorf("mutating the returned slice changed the node")
	}
}

func TestResultInheritsGrouping(t *testing.T) {
	a := New(1, "a").Within("n1", "l1")
	r := a.Mul(Const(2)).Tanh()
	if r.NeuronID != "n1" || r.LayerID != "l1" {
		t.Errorf("grouping = %q/%q", r.NeuronID, r.LayerID)
	}
	r.Within("", "l2")
	if r.NeuronID != "n1" || r.LayerID != "l2" {
		t.Errorf("partial retag = %q/%q", r.NeuronID, r.LayerID)
	}
}

// TestGradientsMatchFiniteDifferences checks each local rule against a
// central difference, for the left and right operand separately.
func TestGradientsMatchFiniteDifferences(t *testing.T) {
	binary := map[string]func(a, b *Value) *Value{
		"add": (*Value).Add,
		"sub": (*Value).Sub,
		"mul": (*Value).Mul,
		"div": (*Value).Div,
	}
	unary := map[string]func(a *Value) *Value{
		"pow2":     func(a *Value) *Value { return a.Pow(2) },
		"pow3":     func(a *Value) *Value { return a.Pow(3) },
		"pow-1":    func(a *Value) *Value { return a.Pow(-1) },
		"exp":      (*Value).Exp,
		"tanh":     (*Value).Tanh,
		"neg":      (*Value).Neg,
		"sigmoid":  (*Value).Sigmoid,
		"relu":     (*Value).Relu,
		"relu-mix": func(a *Value) *Value { return a.Mul(Const(3)).Relu().Add(a) },
	}
	samples := [][2]float64{{2.5, -1.25}, {-0.7, 0.3}, {1e-3, 4}, {-3, -2}}
	settings := &fd.Settings{Formula: fd.Central, Step: 1e-6}

	for name, op := range binary {
		for _, s := range samples {
			x, y := s[0], s[1]
			a, b := New(x, "a"), New(y, "b")
			op(a, b).Backward()

			wantA := fd.Derivative(func(v float64) float64 { return op(New(v, ""), New(y, "")).Data }, x, settings)
			wantB := fd.Derivative(func(v float64) float64 { return op(New(x, ""), New(v, "")).Data }, y, settings)
			if !approx(a.Grad, wantA, fdTol) {
				t.Errorf("%s(%v, %v): da = %v, finite difference %v", name, x, y, a.Grad, wantA)
			}
			if !approx(b.Grad, wantB, fdTol) {
				t.Errorf("%s(%v, %v): db = %v, finite difference %v", name, x, y, b.Grad, wantB)
			}
		}
	}

	for name, op := range unary {
		for _, s := range samples {
			x := s[0]
			a := New(x, "a")
			op(a).Backward()
			want := fd.Derivative(func(v float64) float64 { return op(New(v, "")).Data }, x, settings)
			if !approx(a.Grad, want, fdTol) {
				t.Errorf("%s(%v): da = %v, finite difference %v", name, x, a.Grad, want)
			}
		}
	}
}

// Subtraction and division use the mathematically correct rules.
func TestSubAndDivRules(t *testing.T) {
	a, b := New(6, "a"), New(3, "b")
	a.Sub(b).Backward()
	if a.Grad != 1 || b.Grad != -1 {
		t.Errorf("sub grads = %v, %v; want 1, -1", a.Grad, b.Grad)
	}

	a, b = New(6, "a"), New(3, "b")
	a.Div(b).Backward()
	if !approx(a.Grad, 1.0/3, tol) || !approx(b.Grad, -6.0/9, tol) {
		t.Errorf("div grads = %v, %v; want 1/3, -2/3", a.Grad, b.Grad)
	}
}

func TestDegenerateOperationsPropagateIEEE(t *testing.T) {
	r := New(1, "a").Div(New(0, "b"))
	if !math.IsInf(r.Data, 1) {
		t.Errorf("1/0 = %v, want +Inf", r.Data)
	}
	p := New(-2, "a").Pow(0.5)
	if !math.IsNaN(p.Data) {
		t.Errorf("(-2)^0.5 = %v, want NaN", p.Data)
	}
	p.Backward()
}

func TestAreaScenario(t *testing.T) {
	length := New(15, "length")
	width := New(200, "width")
	area := length.Mul(width).As("area")
	if area.Data != 3000 {
		t.Fatalf("area = %v, want 3000", area.Data)
	}
	area.Backward()
	if length.Grad != 200 || width.Grad != 15 {
		t.Errorf("grads = %v, %v; want 200, 15", length.Grad, width.Grad)
	}
	if area.Grad != 1 {
		t.Errorf("root grad = %v, want 1", area.Grad)
	}
}

func TestAccumulationThroughSharedLeaf(t *testing.T) {
	a := New(3, "a")
	d := a.Mul(a)
	d.Backward()
	if a.Grad != 2*a.Data {
		t.Errorf("d(a*a)/da = %v, want %v", a.Grad, 2*a.Data)
	}

	// Diamond: e = (a+b) * (a*b)
	// de/da = (a*b) + (a+b)*b, de/db = (a*b) + (a+b)*a
	a, b := New(2, "a"), New(-3, "b")
	c1 := a.Add(b)
	c2 := a.Mul(b)
	e := c1.Mul(c2)
	e.Backward()
	wantA := 2*-3 + (2+-3)*-3.0
	wantB := 2*-3 + (2+-3)*2.0
	if a.Grad != wantA || b.Grad != wantB {
		t.Errorf("diamond grads = %v, %v; want %v, %v", a.Grad, b.Grad, wantA, wantB)
	}
}

func TestTopologicalSort(t *testing.T) {
	a, b := New(2, "a"), New(-3, "b")
	c := a.Mul(b)
	d := c.Add(a)
	e := d.Mul(c).Add(b.Tanh())

	topo := TopologicalSort(e)
	pos := make(map[*Value]int, len(topo))
	for i, v := range topo {
		if _, dup := pos[v]; dup {
			t.Fatalf("%s appears twice", v.Name)
		}
		pos[v] = i
	}
	if topo[len(topo)-1] != e {
		t.Errorf("root should be last")
	}
	for _, v := range topo {
		for _, child := range v.children {
			if pos[child] >= pos[v] {
				t.Errorf("child %s at %d not before parent %s at %d", child.Name, pos[child], v.Name, pos[v])
			}
		}
	}
	// a, b, a*b, +a, *c, tanh(b), root
	if len(topo) != 7 {
		t.Errorf("len(topo) = %d, want 7", len(topo))
	}
}

func TestTopologicalSortDeepChain(t *testing.T) {
	x := New(0, "x")
	v := x
	for i := 0; i < 100000; i++ {
		v = v.Add(Const(1)).As("s")
	}
	topo := TopologicalSort(v)
	if len(topo) != 200001 {
		t.Fatalf("len(topo) = %d", len(topo))
	}
	v.Backward()
	if x.Grad != 1 {
		t.Errorf("x.Grad = %v, want 1", x.Grad)
	}
}

func TestBackwardFromInteriorNode(t *testing.T) {
	a, b := New(2, "a"), New(5, "b")
	c := a.Mul(b)
	out := c.Add(b)
	c.Backward()
	if a.Grad != 5 || b.Grad != 2 {
		t.Errorf("grads = %v, %v; want 5, 2", a.Grad, b.Grad)
	}
	if out.Grad != 0 {
		t.Errorf("downstream node touched: %v", out.Grad)
	}
}

func TestBackwardAccumulatesUnlessZeroed(t *testing.T) {
	a, b := New(2, "a"), New(5, "b")
	c := a.Mul(b)

	c.Backward()
	c.Backward()
	// Second pass reseeds c and adds to the stale leaf gradients.
	if a.Grad != 10 {
		t.Errorf("accumulated a.Grad = %v, want 10", a.Grad)
	}

	Backward(c, true)
	if a.Grad != 5 || b.Grad != 2 || c.Grad != 1 {
		t.Errorf("zeroed grads = %v, %v, %v; want 5, 2, 1", a.Grad, b.Grad, c.Grad)
	}

	ZeroGrad([]*Value{a, b})
	if a.Grad != 0 || b.Grad != 0 {
		t.Errorf("ZeroGrad left %v, %v", a.Grad, b.Grad)
	}
}

func TestLeafBackward(t *testing.T) {
	a := New(4, "a")
	a.Backward()
	if a.Grad != 1 {
		t.Errorf("leaf grad = %v, want 1", a.Grad)
	}
}
