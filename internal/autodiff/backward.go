package autodiff

import "math"

// Backward computes ∂root/∂n for every node n reachable from root.
//
// Algorithm:
//  1. Order the graph topologically (TopoSort)
//  2. Set root.Grad to 1
//  3. Walk the order in reverse and apply each node's local rule,
//     adding its contribution to each child's Grad
//
// A leaf passed as root simply ends up with Grad 1.
//
// Backward only accumulates. Reusing nodes for another pass requires Reset
// first, otherwise the old gradients are added to.
//
// Example:
//
//	x := autodiff.New(2.0)
//	y := x.PowConst(3) // y = x³
//	_ = autodiff.Backward(y)
//	fmt.Println(x.Grad()) // dy/dx = 3x² = 12
func Backward(root *Scalar) error {
	return NewTape(root).Backward()
}

// Reset sets Grad to 0 on root and every node reachable from it.
func Reset(root *Scalar) {
	walk(root, func(n *Scalar) {
		n.grad = 0
	})
}

// ZeroGrad sets Grad to 0 on the given nodes only.
func ZeroGrad(nodes ...*Scalar) {
	for _, n := range nodes {
		if n != nil {
			n.grad = 0
		}
	}
}

// Leaves returns the non-constant leaves reachable from root in topological
// order. These are the inputs a caller usually wants gradients for.
func Leaves(root *Scalar) []*Scalar {
	var out []*Scalar
	for _, n := range TopoSort(root) {
		if n.IsLeaf() && !n.constant {
			out = append(out, n)
		}
	}
	return out
}

// walk visits every node reachable from root once, in no particular order.
func walk(root *Scalar, visit func(*Scalar)) {
	if root == nil {
		return
	}
	seen := map[*Scalar]struct{}{root: {}}
	stack := []*Scalar{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(n)
		for _, c := range n.children {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				stack = append(stack, c)
			}
		}
	}
}

// propagate distributes s.grad to s's children according to s.op.
func (s *Scalar) propagate() error {
	if s.op.IsLeaf() {
		return nil
	}
	if len(s.children) != 2 {
		return fault(s.op, s, ErrMalformedNode)
	}

	a, b := s.children[0], s.children[1]
	g := s.grad

	switch s.op {
	case OpAdd:
		a.grad += g
		b.grad += g

	case OpSub:
		a.grad += g
		b.grad += -g

	case OpMul:
		a.grad += b.data * g
		b.grad += a.data * g

	case OpDiv:
		if b.data == 0 {
			return fault(OpDiv, s, ErrDivisionByZero)
		}
		a.grad += (1 / b.data) * g
		b.grad += -(a.data / (b.data * b.data)) * g

	case OpPow:
		return s.propagatePow(a, b, g)

	default:
		return fault(s.op, s, ErrMalformedNode)
	}

	return nil
}

// propagatePow applies the power rule to base and exponent.
//
// The exponent term needs ln(base) and is only defined for base > 0. It is
// skipped for constant exponents. A non-constant exponent over a
// non-positive base is a fault.
func (s *Scalar) propagatePow(base, exp *Scalar, g float64) error {
	if err := checkPow(base.data, exp.data-1); err != nil {
		return fault(OpPow, s, err)
	}
	base.grad += exp.data * math.Pow(base.data, exp.data-1) * g

	if exp.constant {
		return nil
	}
	if base.data <= 0 {
		return fault(OpPow, s, ErrDomain)
	}
	exp.grad += s.data * math.Log(base.data) * g
	return nil
}
