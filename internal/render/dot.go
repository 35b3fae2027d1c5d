package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/born-ml/scalargrad/internal/autodiff"
)

// DOTOption configures WriteDOT.
type DOTOption func(*dotConfig)

type dotConfig struct {
	name    string
	rankDir string
}

// WithGraphName sets the digraph name (default "G").
func WithGraphName(name string) DOTOption {
	return func(c *dotConfig) {
		c.name = name
	}
}

// WithRankDir sets the Graphviz rankdir attribute (default "LR").
func WithRankDir(dir string) DOTOption {
	return func(c *dotConfig) {
		c.rankDir = dir
	}
}

// WriteDOT writes the graph rooted at root as a Graphviz digraph.
//
// Every node becomes a record vertex "{ label | data d | grad g }". An
// interior node additionally gets an operator vertex, named after the node
// id plus the operator symbol, with edges child → operator → node. Vertex
// ids follow topological order, so output is stable for a given graph.
func WriteDOT(w io.Writer, root *autodiff.Scalar, opts ...DOTOption) error {
	cfg := dotConfig{name: "G", rankDir: "LR"}
	for _, opt := range opts {
		opt(&cfg)
	}

	nodes := autodiff.TopoSort(root)
	ids := make(map[*autodiff.Scalar]string, len(nodes))
	for i, n := range nodes {
		ids[n] = fmt.Sprintf("n%d", i)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "digraph %s {\n", quoteID(cfg.name))
	fmt.Fprintf(bw, "\trankdir=%s;\n", cfg.rankDir)

	for _, n := range nodes {
		id := ids[n]
		fmt.Fprintf(bw, "\t%s [label=%s, shape=record];\n", quoteID(id), quoteID(recordLabel(n)))
		if n.IsLeaf() {
			continue
		}
		opID := id + n.Op().String()
		fmt.Fprintf(bw, "\t%s [label=%s];\n", quoteID(opID), quoteID(n.Op().String()))
		fmt.Fprintf(bw, "\t%s -> %s;\n", quoteID(opID), quoteID(id))
		for _, c := range n.Children() {
			fmt.Fprintf(bw, "\t%s -> %s;\n", quoteID(ids[c]), quoteID(opID))
		}
	}

	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

// recordLabel formats the three record fields of a node.
func recordLabel(n *autodiff.Scalar) string {
	return fmt.Sprintf("{ %s | data %.4f | grad %.4f }", escapeRecord(n.Label()), n.Data(), n.Grad())
}

// escapeRecord escapes the characters that delimit record fields.
func escapeRecord(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '{', '}', '|', '<', '>', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// quoteID renders s as a double-quoted DOT identifier.
func quoteID(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
