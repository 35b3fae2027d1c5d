package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/born-ml/scalargrad/internal/autodiff"
	"github.com/born-ml/scalargrad/internal/config"
	"github.com/born-ml/scalargrad/internal/expr"
	"github.com/born-ml/scalargrad/internal/parallel"
	"github.com/born-ml/scalargrad/internal/render"
)

func (a *app) newGradCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grad [expression...]",
		Short: "Evaluate expressions and print the gradient of every variable",
		Long: `Evaluate each expression, run backpropagation from its result and print
d(result)/d(variable) for every variable it uses.

Without arguments the expressions listed in --config are used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sources := args
			if len(sources) == 0 {
				sources = a.cfg.Expressions
			}
			if len(sources) == 0 {
				return fmt.Errorf("no expressions: pass one as an argument or list them in --config")
			}

			results, err := a.evaluate(cmd, sources)
			if err != nil {
				return err
			}
			return writeResults(a.out, results, a.cfg.Output)
		},
	}
	cmd.Flags().StringVar(&a.format, "format", config.FormatText, "output format: text or yaml")
	cmd.Flags().IntVar(&a.workers, "workers", 0, "expressions evaluated at once (0 = one per CPU)")
	return cmd
}

// evaluate differentiates every source in its own graph, concurrently.
func (a *app) evaluate(cmd *cobra.Command, sources []string) ([]result, error) {
	pcfg := parallel.DefaultConfig().WithWorkers(a.cfg.Parallel.Workers)
	a.logger.Debug("evaluating", "expressions", len(sources), "workers", pcfg.NumWorkers, "parallel", pcfg.Enabled)

	return parallel.Map(cmd.Context(), sources, func(_ context.Context, src string) (result, error) {
		e, err := a.compile(src)
		if err != nil {
			return result{}, err
		}
		if err := e.Backward(); err != nil {
			return result{}, fmt.Errorf("%q: %w", src, err)
		}
		a.logger.Debug("differentiated", "expression", src, "nodes", len(autodiff.TopoSort(e.Root)))
		return newResult(e), nil
	}, pcfg)
}

func (a *app) newDotCommand() *cobra.Command {
	var (
		name    string
		rankdir string
	)
	cmd := &cobra.Command{
		Use:   "dot <expression>",
		Short: "Write the differentiated expression graph in Graphviz DOT format",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			e, err := a.differentiate(args[0])
			if err != nil {
				return err
			}
			return render.WriteDOT(a.out, e.Root, render.WithGraphName(name), render.WithRankDir(rankdir))
		},
	}
	cmd.Flags().StringVar(&name, "name", "G", "graph name")
	cmd.Flags().StringVar(&rankdir, "rankdir", "LR", "graph layout direction: LR, TB, RL, BT")
	return cmd
}

func (a *app) newPrintCommand() *cobra.Command {
	var indent int
	cmd := &cobra.Command{
		Use:   "print <expression>",
		Short: "Print the differentiated expression graph as an indented tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			e, err := a.differentiate(args[0])
			if err != nil {
				return err
			}
			return render.Print(a.out, e.Root,
				render.WithColor(a.useColor()),
				render.WithIndent(strings.Repeat(" ", indent)),
			)
		},
	}
	cmd.Flags().IntVar(&indent, "indent", 2, "spaces per tree level")
	return cmd
}

func (a *app) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(a.out, "scalargrad %s\n", version)
		},
	}
}

// compile builds src over the configured variables and applies their labels.
func (a *app) compile(src string) (*expr.Expression, error) {
	e, err := expr.Compile(src, a.cfg.Values())
	if err != nil {
		return nil, err
	}
	for name, leaf := range e.Vars {
		if label := a.cfg.Variables[name].Label; label != "" {
			leaf.SetLabel(label)
		}
	}
	return e, nil
}

func (a *app) differentiate(src string) (*expr.Expression, error) {
	e, err := a.compile(src)
	if err != nil {
		return nil, err
	}
	if err := e.Backward(); err != nil {
		return nil, fmt.Errorf("%q: %w", src, err)
	}
	return e, nil
}
