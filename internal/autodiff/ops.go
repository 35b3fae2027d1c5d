package autodiff

import "math"

// Each operator has three entry points:
//
//	x.Add(y)      node + node
//	x.AddConst(f) node + number
//	x.RAdd(f)     number + node
//
// The number forms wrap f with Const and defer to the node form, so every
// interior node ends up with exactly two children. Reflected forms put the
// constant on the left, which keeps Sub, Div and Pow non-commutative:
// x.RSub(5) builds the same graph as Const(5).Sub(x).

// Add returns s + o.
//
// Backward: ∂/∂s = 1, ∂/∂o = 1.
func (s *Scalar) Add(o *Scalar) *Scalar {
	return newNode(s.data+o.data, OpAdd, s, o)
}

// AddConst returns s + f.
func (s *Scalar) AddConst(f float64) *Scalar {
	return s.Add(Const(f))
}

// RAdd returns f + s.
func (s *Scalar) RAdd(f float64) *Scalar {
	return Const(f).Add(s)
}

// Sub returns s - o.
//
// Backward: ∂/∂s = 1, ∂/∂o = -1.
func (s *Scalar) Sub(o *Scalar) *Scalar {
	return newNode(s.data-o.data, OpSub, s, o)
}

// SubConst returns s - f.
func (s *Scalar) SubConst(f float64) *Scalar {
	return s.Sub(Const(f))
}

// RSub returns f - s.
func (s *Scalar) RSub(f float64) *Scalar {
	return Const(f).Sub(s)
}

// Mul returns s * o.
//
// Backward: ∂/∂s = o, ∂/∂o = s.
func (s *Scalar) Mul(o *Scalar) *Scalar {
	return newNode(s.data*o.data, OpMul, s, o)
}

// MulConst returns s * f.
func (s *Scalar) MulConst(f float64) *Scalar {
	return s.Mul(Const(f))
}

// RMul returns f * s.
func (s *Scalar) RMul(f float64) *Scalar {
	return Const(f).Mul(s)
}

// Neg returns -s, recorded as s * -1.
func (s *Scalar) Neg() *Scalar {
	return s.MulConst(-1)
}

// Div returns s / o.
//
// Backward: ∂/∂s = 1/o, ∂/∂o = -s/o².
//
// Panics with *ArithmeticError wrapping ErrDivisionByZero when o is zero.
func (s *Scalar) Div(o *Scalar) *Scalar {
	if o.data == 0 {
		panic(fault(OpDiv, o, ErrDivisionByZero))
	}
	return newNode(s.data/o.data, OpDiv, s, o)
}

// DivConst returns s / f.
func (s *Scalar) DivConst(f float64) *Scalar {
	return s.Div(Const(f))
}

// RDiv returns f / s.
func (s *Scalar) RDiv(f float64) *Scalar {
	return Const(f).Div(s)
}

// Pow returns s ** o.
//
// Backward: ∂/∂s = o·s^(o-1), ∂/∂o = s^o·ln(s).
//
// Panics with *ArithmeticError when the power is undefined over the reals:
// ErrDivisionByZero for 0 raised to a negative power, ErrDomain for a
// negative base raised to a non-integer power.
func (s *Scalar) Pow(o *Scalar) *Scalar {
	if err := checkPow(s.data, o.data); err != nil {
		panic(fault(OpPow, s, err))
	}
	return newNode(math.Pow(s.data, o.data), OpPow, s, o)
}

// PowConst returns s ** f.
func (s *Scalar) PowConst(f float64) *Scalar {
	return s.Pow(Const(f))
}

// RPow returns f ** s.
func (s *Scalar) RPow(f float64) *Scalar {
	return Const(f).Pow(s)
}

// checkPow rejects the base/exponent pairs a trapping power function would.
func checkPow(base, exp float64) error {
	switch {
	case base == 0 && exp < 0:
		return ErrDivisionByZero
	case base < 0 && !isInteger(exp):
		return ErrDomain
	}
	return nil
}

func isInteger(f float64) bool {
	if math.IsInf(f, 0) {
		return true
	}
	return !math.IsNaN(f) && math.Trunc(f) == f
}
