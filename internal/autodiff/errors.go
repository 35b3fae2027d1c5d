package autodiff

import (
	"errors"
	"fmt"
)

// Arithmetic faults. Go floating point never traps, so the engine checks the
// cases a trapping host would reject and reports them with these sentinels.
var (
	// ErrDivisionByZero reports a zero denominator, including 0 raised to a
	// negative power.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrDomain reports an argument outside a function's domain: the
	// logarithm of a non-positive number, or a fractional power of a
	// negative number.
	ErrDomain = errors.New("math domain error")

	// ErrMalformedNode reports a node whose operand count does not match
	// its operator.
	ErrMalformedNode = errors.New("malformed node")
)

// ArithmeticError describes a fault raised while building or
// differentiating a node.
type ArithmeticError struct {
	Op    Op     // Operator whose rule faulted.
	Label string // Label of the offending node, if any.
	Err   error  // One of the sentinel errors above.
}

func (e *ArithmeticError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("autodiff: %s (op %q, node %q)", e.Err, e.Op, e.Label)
	}
	return fmt.Sprintf("autodiff: %s (op %q)", e.Err, e.Op)
}

func (e *ArithmeticError) Unwrap() error {
	return e.Err
}

func fault(op Op, node *Scalar, err error) *ArithmeticError {
	e := &ArithmeticError{Op: op, Err: err}
	if node != nil {
		e.Label = node.label
	}
	return e
}

// Try runs build and converts a construction fault into an error.
//
// Operator methods panic with *ArithmeticError so that expressions can be
// chained; Try is the boundary where that panic becomes an ordinary error.
// Any other panic is re-raised.
//
//	y, err := autodiff.Try(func() *autodiff.Scalar {
//	    return x.Div(w).PowConst(0.5)
//	})
func Try(build func() *Scalar) (s *Scalar, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		ae, ok := r.(*ArithmeticError)
		if !ok {
			panic(r)
		}
		s, err = nil, ae
	}()
	return build(), nil
}
