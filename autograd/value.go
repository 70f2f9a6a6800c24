package autograd

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Operation describes how a Value was formed.
type Operation string

const (
	OpAssign Operation = "="
	OpAdd    Operation = "+"
	OpSub    Operation = "-"
	OpMul    Operation = "x"
	OpDiv    Operation = "/"
	OpPow    Operation = "pow"
	OpExp    Operation = "exp"
	OpTanh   Operation = "tanh"
	OpRelu   Operation = "relu"
)

// Kind is display metadata describing the role a Value plays in a network.
type Kind string

const (
	KindDefault Kind = "default"
	KindInput   Kind = "input"
	KindWeight  Kind = "weight"
	KindOutput  Kind = "output"
)

// Value is one scalar in a computation graph.
//
// Think of this as a "number with memory":
// - Data is the actual number used in calculations.
// - Grad is "how much the root changes if this number changes a little."
// - children are the nodes consumed to produce this one, fixed at creation.
// - op tells the differentiator which local derivative rule applies.
//
// Name, Kind, NeuronID and LayerID are purely descriptive and never read by
// the numeric code.
type Value struct {
	Data float64
	Grad float64

	Name     string
	Kind     Kind
	NeuronID string
	LayerID  string

	id       string
	op       Operation
	children []*Value
	exponent float64
}

// New creates a leaf node (a plain number with no children).
func New(data float64, name string) *Value {
	return &Value{
		Data: data,
		Name: name,
		Kind: KindDefault,
		id:   uuid.NewString(),
		op:   OpAssign,
	}
}

// Const promotes a literal to a leaf. Its name is only used for display.
func Const(x float64) *Value {
	return New(x, fmt.Sprintf("%.2f", x))
}

// result builds a non-leaf node that inherits the grouping ids of lhs.
func result(data float64, name string, op Operation, lhs *Value, children ...*Value) *Value {
	return &Value{
		Data:     data,
		Name:     name,
		Kind:     KindDefault,
		NeuronID: lhs.NeuronID,
		LayerID:  lhs.LayerID,
		id:       uuid.NewString(),
		op:       op,
		children: children,
	}
}

// ID returns the unique identifier assigned at construction.
func (v *Value) ID() string { return v.id }

// Op returns the operation that produced v.
func (v *Value) Op() Operation { return v.op }

// Exponent returns the power applied by a pow node. It is zero for any
// other operation.
func (v *Value) Exponent() float64 { return v.exponent }

// Children returns the operands of v in order. The returned slice is a copy.
func (v *Value) Children() []*Value {
	return append([]*Value(nil), v.children...)
}

// IsLeaf reports whether v was created directly rather than by an operation.
func (v *Value) IsLeaf() bool { return len(v.children) == 0 }

// As renames v in place and returns it.
func (v *Value) As(name string) *Value {
	v.Name = name
	return v
}

// Within retags v with the neuron and layer that produced it. Empty ids leave
// the current tag untouched.
func (v *Value) Within(neuronID, layerID string) *Value {
	if neuronID != "" {
		v.NeuronID = neuronID
	}
	if layerID != "" {
		v.LayerID = layerID
	}
	return v
}

// Add creates node z = x + y.
// Local derivatives:
// dz/dx = 1
// dz/dy = 1
func (v *Value) Add(other *Value) *Value {
	return result(v.Data+other.Data, v.Name+"+"+other.Name, OpAdd, v, v, other)
}

// Sub creates node z = x - y.
// Local derivatives:
// dz/dx = 1
// dz/dy = -1
func (v *Value) Sub(other *Value) *Value {
	return result(v.Data-other.Data, v.Name+"-"+other.Name, OpSub, v, v, other)
}

// Mul creates node z = x * y.
// Local derivatives:
// dz/dx = y
// dz/dy = x
func (v *Value) Mul(other *Value) *Value {
	return result(v.Data*other.Data, v.Name+"*"+other.Name, OpMul, v, v, other)
}

// Div creates node z = x / y.
// Local derivatives:
// dz/dx = 1/y
// dz/dy = -x/y^2
//
// Division by zero yields the IEEE result (Inf or NaN), not an error.
func (v *Value) Div(other *Value) *Value {
	return result(v.Data/other.Data, v.Name+"/"+other.Name, OpDiv, v, v, other)
}

// Pow creates node z = x^p.
// Local derivative:
// dz/dx = p * x^(p-1)
func (v *Value) Pow(power float64) *Value {
	r := result(math.Pow(v.Data, power), fmt.Sprintf("pow(%s, %g)", v.Name, power), OpPow, v, v)
	r.exponent = power
	return r
}

// Exp creates node z = e^x.
// Local derivative:
// dz/dx = e^x
func (v *Value) Exp() *Value {
	return result(math.Exp(v.Data), "exp("+v.Name+")", OpExp, v, v)
}

// Tanh creates node z = tanh(x).
// Local derivative:
// dz/dx = 1 - z^2
func (v *Value) Tanh() *Value {
	return result(math.Tanh(v.Data), "tanh("+v.Name+")", OpTanh, v, v)
}

// Relu applies the ReLU activation:
// relu(x) = max(0, x)
//
// Local derivative:
// 1 when x > 0, otherwise 0.
func (v *Value) Relu() *Value {
	return result(math.Max(0, v.Data), "relu("+v.Name+")", OpRelu, v, v)
}

// Neg returns -x, built as x * -1.
func (v *Value) Neg() *Value {
	return v.Mul(Const(-1))
}

// Sigmoid returns 1 / (1 + e^-x) composed from primitive operations, so its
// gradient flows through the existing rules.
func (v *Value) Sigmoid() *Value {
	return v.Neg().Exp().Add(Const(1)).Pow(-1).As("sigmoid(" + v.Name + ")")
}

// backwardStep distributes v.Grad to the children of v.
// Every rule accumulates: a child may have several parents.
func (v *Value) backwardStep() {
	switch v.op {
	case OpAdd:
		a, b := v.children[0], v.children[1]
		a.Grad += v.Grad
		b.Grad += v.Grad
	case OpSub:
		a, b := v.children[0], v.children[1]
		a.Grad += v.Grad
		b.Grad -= v.Grad
	case OpMul:
		a, b := v.children[0], v.children[1]
		a.Grad += b.Data * v.Grad
		b.Grad += a.Data * v.Grad
	case OpDiv:
		a, b := v.children[0], v.children[1]
		a.Grad += (1 / b.Data) * v.Grad
		b.Grad += -(a.Data / (b.Data * b.Data)) * v.Grad
	case OpPow:
		a := v.children[0]
		a.Grad += v.exponent * math.Pow(a.Data, v.exponent-1) * v.Grad
	case OpExp:
		v.children[0].Grad += v.Data * v.Grad
	case OpTanh:
		v.children[0].Grad += (1 - v.Data*v.Data) * v.Grad
	case OpRelu:
		if v.children[0].Data > 0 {
			v.children[0].Grad += v.Grad
		}
	}
}

func (v *Value) String() string {
	return fmt.Sprintf("Value(%s data=%.4f grad=%.4f)", v.Name, v.Data, v.Grad)
}
