package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/born-ml/scalargrad/internal/config"
	"github.com/born-ml/scalargrad/internal/render"
)

// app holds the state shared by every subcommand.
type app struct {
	out    io.Writer
	errOut io.Writer

	// flags
	configPath string
	logLevel   string
	vars       []string
	colorMode  string
	format     string
	workers    int

	cfg    config.Config
	logger *slog.Logger
}

// newRootCommand builds the command tree writing to out and errOut.
func newRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "scalargrad",
		Short:         "Differentiate scalar arithmetic expressions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML file with variables and expressions")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringArrayVar(&a.vars, "var", nil, "variable binding name=value (repeatable)")
	pf.StringVar(&a.colorMode, "color", "auto", "colour output: auto, always, never")

	root.AddCommand(
		a.newGradCommand(),
		a.newDotCommand(),
		a.newPrintCommand(),
		a.newVersionCommand(),
	)
	return root
}

// setup loads configuration, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	for _, kv := range a.vars {
		name, value, err := parseVar(kv)
		if err != nil {
			return err
		}
		cfg.Set(name, value)
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if cmd.Flags().Changed("format") {
		cfg.Output.Format = a.format
	}
	if cmd.Flags().Changed("workers") {
		cfg.Parallel.Workers = a.workers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	switch a.colorMode {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("--color must be auto, always or never, got %q", a.colorMode)
	}

	a.cfg = cfg
	a.logger = newLogger(a.errOut, cfg.LogLevel)
	a.logger.Debug("configuration loaded",
		"config", a.configPath,
		"variables", len(cfg.Variables),
		"expressions", len(cfg.Expressions),
	)
	return nil
}

// useColor resolves --color against the output writer.
func (a *app) useColor() bool {
	switch a.colorMode {
	case "always":
		return true
	case "never":
		return false
	default:
		return render.AutoColor(a.out)
	}
}

// parseVar splits "name=value".
func parseVar(kv string) (string, float64, error) {
	name, raw, ok := strings.Cut(kv, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", 0, fmt.Errorf("--var %q: want name=value", kv)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", 0, fmt.Errorf("--var %q: %w", kv, err)
	}
	return name, v, nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
