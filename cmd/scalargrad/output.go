package main

import (
	"bufio"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/scalargrad/internal/config"
	"github.com/born-ml/scalargrad/internal/expr"
)

// result is one differentiated expression.
type result struct {
	Expression string             `yaml:"expression"`
	Value      float64            `yaml:"value"`
	Gradients  map[string]float64 `yaml:"gradients"`

	names []string
}

func newResult(e *expr.Expression) result {
	return result{
		Expression: e.Source,
		Value:      e.Value(),
		Gradients:  e.Gradients(),
		names:      e.Names(),
	}
}

// writeResults prints results in the configured format. Precision applies
// to text output only; YAML keeps full float64 values.
func writeResults(w io.Writer, results []result, out config.OutputConfig) error {
	if out.Format == config.FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("encode results: %w", err)
		}
		return enc.Close()
	}

	bw := bufio.NewWriter(w)
	p := out.Precision
	for _, r := range results {
		fmt.Fprintf(bw, "%s = %.*f\n", r.Expression, p, r.Value)
		for _, name := range r.names {
			fmt.Fprintf(bw, "  d/%s = %.*f\n", name, p, r.Gradients[name])
		}
	}
	return bw.Flush()
}
