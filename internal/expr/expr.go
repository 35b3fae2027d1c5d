// Package expr builds scalar graphs from textual arithmetic expressions.
//
// Parsing is delegated to github.com/expr-lang/expr; the resulting syntax
// tree is walked once and every arithmetic node becomes an autodiff node.
// Supported syntax:
//   - binary + - * / and ** or ^ (right associative)
//   - unary - and +
//   - parentheses
//   - integer and float literals (become constant leaves)
//   - identifiers (bound to leaves; one leaf per name, so x*x fans out)
//
// Example:
//
//	e, err := expr.Compile("x * w + x ** 2", map[string]float64{"x": 2, "w": 3})
//	if err != nil {
//	    return err
//	}
//	if err := e.Backward(); err != nil {
//	    return err
//	}
//	fmt.Println(e.Gradients()) // map[w:2 x:7]
package expr

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"

	"github.com/born-ml/scalargrad/internal/autodiff"
)

var (
	// ErrUnknownVariable reports an identifier with no binding.
	ErrUnknownVariable = errors.New("unknown variable")

	// ErrUnsupported reports syntax outside plain arithmetic.
	ErrUnsupported = errors.New("unsupported syntax")
)

// Expression is a compiled expression: its graph and its named inputs.
type Expression struct {
	Source string
	Root   *autodiff.Scalar
	Vars   map[string]*autodiff.Scalar // only the names the source uses
}

// Compile parses src and builds a graph over fresh leaves created from
// values. Each leaf is labelled with its variable name. Values that src
// never mentions are ignored.
func Compile(src string, values map[string]float64) (*Expression, error) {
	env := make(map[string]*autodiff.Scalar, len(values))
	for name, v := range values {
		env[name] = autodiff.New(v).WithLabel(name)
	}

	b := &builder{env: env, used: make(map[string]*autodiff.Scalar)}
	root, err := b.compile(src)
	if err != nil {
		return nil, err
	}

	return &Expression{Source: src, Root: root, Vars: b.used}, nil
}

// Build parses src and builds a graph over existing leaves. Use it to reuse
// the same inputs (for example optimizer parameters) across expressions.
func Build(src string, env map[string]*autodiff.Scalar) (*autodiff.Scalar, error) {
	b := &builder{env: env, used: make(map[string]*autodiff.Scalar)}
	return b.compile(src)
}

// Backward differentiates the expression root.
func (e *Expression) Backward() error {
	return autodiff.Backward(e.Root)
}

// Reset zeroes every gradient in the expression graph.
func (e *Expression) Reset() {
	autodiff.Reset(e.Root)
}

// Value returns the forward result.
func (e *Expression) Value() float64 {
	return e.Root.Data()
}

// Names returns the variable names used by the expression, sorted.
func (e *Expression) Names() []string {
	return slices.Sorted(maps.Keys(e.Vars))
}

// Gradients returns the current gradient of every variable by name.
func (e *Expression) Gradients() map[string]float64 {
	out := make(map[string]float64, len(e.Vars))
	for name, v := range e.Vars {
		out[name] = v.Grad()
	}
	return out
}

type builder struct {
	env  map[string]*autodiff.Scalar
	used map[string]*autodiff.Scalar
}

func (b *builder) compile(src string) (*autodiff.Scalar, error) {
	tree, err := parser.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("expr: parse %q: %w", src, err)
	}

	var buildErr error
	root, err := autodiff.Try(func() *autodiff.Scalar {
		var n *autodiff.Scalar
		n, buildErr = b.build(tree.Node)
		return n
	})
	if err != nil {
		return nil, fmt.Errorf("expr: evaluate %q: %w", src, err)
	}
	if buildErr != nil {
		return nil, fmt.Errorf("expr: %q: %w", src, buildErr)
	}
	return root, nil
}

func (b *builder) build(node ast.Node) (*autodiff.Scalar, error) {
	switch n := node.(type) {
	case *ast.IntegerNode:
		return autodiff.Const(float64(n.Value)), nil

	case *ast.FloatNode:
		return autodiff.Const(n.Value), nil

	case *ast.IdentifierNode:
		v, ok := b.env[n.Value]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownVariable, n.Value)
		}
		b.used[n.Value] = v
		return v, nil

	case *ast.UnaryNode:
		return b.buildUnary(n)

	case *ast.BinaryNode:
		return b.buildBinary(n)

	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupported, node)
	}
}

func (b *builder) buildUnary(n *ast.UnaryNode) (*autodiff.Scalar, error) {
	switch n.Operator {
	case "+":
		return b.build(n.Node)
	case "-":
		// Fold negative literals into a single constant.
		switch lit := n.Node.(type) {
		case *ast.IntegerNode:
			return autodiff.Const(-float64(lit.Value)), nil
		case *ast.FloatNode:
			return autodiff.Const(-lit.Value), nil
		}
		x, err := b.build(n.Node)
		if err != nil {
			return nil, err
		}
		return x.Neg(), nil
	default:
		return nil, fmt.Errorf("%w: unary operator %q", ErrUnsupported, n.Operator)
	}
}

func (b *builder) buildBinary(n *ast.BinaryNode) (*autodiff.Scalar, error) {
	var op func(l, r *autodiff.Scalar) *autodiff.Scalar
	switch n.Operator {
	case "+":
		op = (*autodiff.Scalar).Add
	case "-":
		op = (*autodiff.Scalar).Sub
	case "*":
		op = (*autodiff.Scalar).Mul
	case "/":
		op = (*autodiff.Scalar).Div
	case "**", "^":
		op = (*autodiff.Scalar).Pow
	default:
		return nil, fmt.Errorf("%w: binary operator %q", ErrUnsupported, n.Operator)
	}

	l, err := b.build(n.Left)
	if err != nil {
		return nil, err
	}
	r, err := b.build(n.Right)
	if err != nil {
		return nil, err
	}
	return op(l, r), nil
}
