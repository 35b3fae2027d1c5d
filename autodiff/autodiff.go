// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation over
// scalar values.
//
// Arithmetic on *Scalar records an expression graph; Backward walks it once
// and leaves ∂root/∂node in every node's Grad.
//
// Example:
//
//	import "github.com/born-ml/scalargrad/autodiff"
//
//	func main() {
//	    x := autodiff.New(3.0).WithLabel("x")
//	    w := autodiff.New(4.0).WithLabel("w")
//	    y := x.Mul(w)
//
//	    if err := autodiff.Backward(y); err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(x.Grad(), w.Grad()) // 4 3
//
//	    autodiff.Reset(y) // before reusing the same nodes
//	}
package autodiff

import (
	"github.com/born-ml/scalargrad/internal/autodiff"
)

// Scalar is one value in an expression graph.
type Scalar = autodiff.Scalar

// Op identifies the operator that produced a node.
type Op = autodiff.Op

// Operators.
const (
	OpNone = autodiff.OpNone
	OpAdd  = autodiff.OpAdd
	OpSub  = autodiff.OpSub
	OpMul  = autodiff.OpMul
	OpDiv  = autodiff.OpDiv
	OpPow  = autodiff.OpPow
)

// Tape is the recorded topological order of a graph.
type Tape = autodiff.Tape

// ArithmeticError describes a construction or backward fault.
type ArithmeticError = autodiff.ArithmeticError

// Fault sentinels, usable with errors.Is.
var (
	ErrDivisionByZero = autodiff.ErrDivisionByZero
	ErrDomain         = autodiff.ErrDomain
	ErrMalformedNode  = autodiff.ErrMalformedNode
)

// New creates a leaf holding v.
func New(v float64) *Scalar {
	return autodiff.New(v)
}

// Const creates a constant leaf holding v.
func Const(v float64) *Scalar {
	return autodiff.Const(v)
}

// Try runs build and converts a construction fault into an error.
func Try(build func() *Scalar) (*Scalar, error) {
	return autodiff.Try(build)
}

// Backward computes the gradient of root with respect to every reachable node.
func Backward(root *Scalar) error {
	return autodiff.Backward(root)
}

// Reset zeroes the gradient of every node reachable from root.
func Reset(root *Scalar) {
	autodiff.Reset(root)
}

// ZeroGrad zeroes the gradient of the given nodes.
func ZeroGrad(nodes ...*Scalar) {
	autodiff.ZeroGrad(nodes...)
}

// TopoSort returns the reachable nodes, children before parents.
func TopoSort(root *Scalar) []*Scalar {
	return autodiff.TopoSort(root)
}

// Leaves returns the reachable non-constant leaves.
func Leaves(root *Scalar) []*Scalar {
	return autodiff.Leaves(root)
}

// NewTape records the topological order of the graph rooted at root.
func NewTape(root *Scalar) *Tape {
	return autodiff.NewTape(root)
}
