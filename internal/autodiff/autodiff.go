// Package autodiff implements reverse-mode automatic differentiation over
// scalar values.
//
// Every arithmetic method on *Scalar allocates a new node that remembers the
// operator and the operands that produced it. Calling Backward on the final
// node walks that graph once, in reverse topological order, and accumulates
// ∂root/∂node into every node's Grad.
//
// Architecture:
//   - Scalar: value, gradient, operator tag and operand list
//   - Op: closed set of operators, each with a local derivative rule
//   - Tape: topological order of a graph, replayed in reverse by Backward
//   - Plain numbers are wrapped into constant leaves before a node is built,
//     so every interior node has exactly two children
//
// Usage:
//
//	x := autodiff.New(3.0).WithLabel("x")
//	w := autodiff.New(4.0).WithLabel("w")
//	y := x.Mul(w).AddConst(1) // y = x*w + 1
//
//	if err := autodiff.Backward(y); err != nil {
//	    return err
//	}
//	fmt.Println(x.Grad(), w.Grad()) // 4 3
package autodiff

import (
	"fmt"
	"strconv"
)

// Op identifies the local derivative rule that produced a node.
type Op uint8

// Supported operators.
const (
	OpNone Op = iota // leaf: user input or wrapped constant
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpPow
)

// String returns the operator symbol, or "" for OpNone.
func (o Op) String() string {
	switch o {
	case OpNone:
		return ""
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpPow:
		return "**"
	default:
		return "Op(" + strconv.Itoa(int(o)) + ")"
	}
}

// IsLeaf reports whether o is the leaf tag.
func (o Op) IsLeaf() bool {
	return o == OpNone
}

// Scalar is one value in an expression graph.
//
// Data is fixed at construction. Grad is written only by Backward, Reset and
// ZeroGrad. Children are ordered: index 0 is the left operand (or the base of
// a power), index 1 the right operand (or the exponent).
type Scalar struct {
	data     float64
	grad     float64
	op       Op
	children []*Scalar
	label    string
	constant bool
}

// New creates a leaf holding v.
func New(v float64) *Scalar {
	return &Scalar{data: v}
}

// Const creates a constant leaf holding v.
//
// Constants behave exactly like leaves created by New, except that the power
// rule does not compute an exponent gradient for them.
func Const(v float64) *Scalar {
	return &Scalar{data: v, constant: true, label: formatConst(v)}
}

// newNode allocates an interior node. Callers guarantee len(children) == 2.
func newNode(data float64, op Op, a, b *Scalar) *Scalar {
	return &Scalar{
		data:     data,
		op:       op,
		children: []*Scalar{a, b},
	}
}

// Data returns the forward value.
func (s *Scalar) Data() float64 {
	return s.data
}

// SetData replaces the value of a leaf.
//
// Interior nodes are derived values and cannot be overwritten; nodes built
// on top of a leaf keep their old value until the graph is rebuilt.
func (s *Scalar) SetData(v float64) {
	if !s.op.IsLeaf() {
		panic("autodiff: SetData on interior node")
	}
	s.data = v
}

// Grad returns the accumulated gradient.
func (s *Scalar) Grad() float64 {
	return s.grad
}

// Op returns the operator tag.
func (s *Scalar) Op() Op {
	return s.op
}

// Children returns a copy of the operand list.
func (s *Scalar) Children() []*Scalar {
	if len(s.children) == 0 {
		return nil
	}
	out := make([]*Scalar, len(s.children))
	copy(out, s.children)
	return out
}

// NumChildren returns the number of operands without copying them.
func (s *Scalar) NumChildren() int {
	return len(s.children)
}

// Child returns operand i.
func (s *Scalar) Child(i int) *Scalar {
	return s.children[i]
}

// Label returns the display name.
func (s *Scalar) Label() string {
	return s.label
}

// SetLabel sets the display name.
func (s *Scalar) SetLabel(label string) {
	s.label = label
}

// WithLabel sets the display name and returns s for chaining.
func (s *Scalar) WithLabel(label string) *Scalar {
	s.label = label
	return s
}

// IsLeaf reports whether s has no operator.
func (s *Scalar) IsLeaf() bool {
	return s.op.IsLeaf()
}

// IsConstant reports whether s was created by Const or by wrapping a plain
// number operand.
func (s *Scalar) IsConstant() bool {
	return s.constant
}

// String implements fmt.Stringer.
func (s *Scalar) String() string {
	return fmt.Sprintf("Scalar(%v, gradient %v)", s.data, s.grad)
}

func formatConst(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
