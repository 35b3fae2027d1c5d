// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package render draws scalar graphs as Graphviz DOT or as an indented
// debug dump.
package render

import (
	"io"

	"github.com/born-ml/scalargrad/internal/autodiff"
	"github.com/born-ml/scalargrad/internal/render"
)

// DOTOption configures WriteDOT.
type DOTOption = render.DOTOption

// PrintOption configures Print.
type PrintOption = render.PrintOption

// WriteDOT writes the graph rooted at root as a Graphviz digraph.
func WriteDOT(w io.Writer, root *autodiff.Scalar, opts ...DOTOption) error {
	return render.WriteDOT(w, root, opts...)
}

// WithGraphName sets the digraph name.
func WithGraphName(name string) DOTOption {
	return render.WithGraphName(name)
}

// WithRankDir sets the Graphviz rankdir attribute.
func WithRankDir(dir string) DOTOption {
	return render.WithRankDir(dir)
}

// Print writes an indented pre-order dump of the graph rooted at root.
func Print(w io.Writer, root *autodiff.Scalar, opts ...PrintOption) error {
	return render.Print(w, root, opts...)
}

// WithColor enables or disables ANSI colour.
func WithColor(enabled bool) PrintOption {
	return render.WithColor(enabled)
}

// WithIndent sets the per-level indent.
func WithIndent(indent string) PrintOption {
	return render.WithIndent(indent)
}

// AutoColor reports whether w is a terminal that should receive colour.
func AutoColor(w io.Writer) bool {
	return render.AutoColor(w)
}
