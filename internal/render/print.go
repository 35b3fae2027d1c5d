package render

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/born-ml/scalargrad/internal/autodiff"
)

// PrintOption configures Print.
type PrintOption func(*printConfig)

type printConfig struct {
	color  bool
	indent string
}

// WithColor enables or disables ANSI colour regardless of the terminal.
func WithColor(enabled bool) PrintOption {
	return func(c *printConfig) {
		c.color = enabled
	}
}

// WithIndent sets the per-level indent (default two spaces).
func WithIndent(indent string) PrintOption {
	return func(c *printConfig) {
		c.indent = indent
	}
}

// AutoColor reports whether w is a terminal that should receive colour.
// NO_COLOR in the environment always disables it.
func AutoColor(w io.Writer) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// palette holds the per-field colour functions.
type palette struct {
	label func(a ...any) string
	data  func(a ...any) string
	grad  func(a ...any) string
	op    func(a ...any) string
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) func(a ...any) string {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return palette{
		label: mk(color.Bold),
		data:  mk(color.FgCyan),
		grad:  mk(color.FgYellow),
		op:    mk(color.FgMagenta),
	}
}

// printFrame is a pending node and its depth.
type printFrame struct {
	node  *autodiff.Scalar
	depth int
}

// Print writes root and all of its descendants, one per line, in pre-order:
//
//	<label> | data 0.0000 | grad 0.0000 | op <op>
//
// Each level is indented by two spaces. A node reachable through several
// paths is printed once per path. The format is a debugging aid and may
// change.
func Print(w io.Writer, root *autodiff.Scalar, opts ...PrintOption) error {
	cfg := printConfig{indent: "  "}
	for _, opt := range opts {
		opt(&cfg)
	}
	pal := newPalette(cfg.color)

	bw := bufio.NewWriter(w)
	if root == nil {
		return bw.Flush()
	}

	stack := []printFrame{{node: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := f.node
		fmt.Fprintf(bw, "%s%s | data %s | grad %s | op %s\n",
			strings.Repeat(cfg.indent, f.depth),
			pal.label(n.Label()),
			pal.data(fmt.Sprintf("%.4f", n.Data())),
			pal.grad(fmt.Sprintf("%.4f", n.Grad())),
			pal.op(n.Op().String()),
		)

		// Push in reverse so children print left to right.
		for i := n.NumChildren() - 1; i >= 0; i-- {
			stack = append(stack, printFrame{node: n.Child(i), depth: f.depth + 1})
		}
	}

	return bw.Flush()
}
