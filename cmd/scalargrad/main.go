// Package main provides the scalargrad CLI.
//
// scalargrad parses arithmetic expressions, differentiates them with
// reverse-mode autodiff and prints the gradient of every variable.
//
//	scalargrad grad "x * w + x ** 2" --var x=2 --var w=3
//	scalargrad dot "x / (1 + x)" --var x=0.5 | dot -Tsvg > graph.svg
//	scalargrad print "x * x" --var x=3
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

const version = "v0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "scalargrad: %v\n", err)
		stop()
		os.Exit(1)
	}
}
