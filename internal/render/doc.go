// Package render turns a finished scalar graph into something a person can
// read. It never writes to Data or Grad.
//
// Two views are provided:
//   - WriteDOT: a Graphviz digraph with one record vertex per node and one
//     operator vertex per interior node (child → op → node)
//   - Print: an indented pre-order dump for quick debugging; shared nodes
//     are printed once per path that reaches them
//
// Example usage:
//
//	x := autodiff.New(2).WithLabel("x")
//	y := x.Mul(x).WithLabel("y")
//	_ = autodiff.Backward(y)
//
//	// Graphviz
//	if err := render.WriteDOT(os.Stdout, y); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Terminal
//	_ = render.Print(os.Stdout, y, render.WithColor(render.AutoColor(os.Stdout)))
package render
