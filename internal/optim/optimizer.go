// Package optim implements gradient-descent optimizers over scalar leaves.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//
// Parameters are leaves created with autodiff.New. Because node values are
// fixed at construction, the graph must be rebuilt after every Step so the
// forward pass sees the updated parameters.
//
// Example usage:
//
//	w := autodiff.New(0.5).WithLabel("w")
//	b := autodiff.New(0).WithLabel("b")
//	opt := optim.NewSGD([]*autodiff.Scalar{w, b}, optim.SGDConfig{LR: 0.05})
//
//	for epoch := range epochs {
//	    opt.ZeroGrad()
//	    loss := buildLoss(w, b) // fresh graph every step
//	    if err := autodiff.Backward(loss); err != nil {
//	        return err
//	    }
//	    opt.Step()
//	}
package optim

import (
	"github.com/born-ml/scalargrad/internal/autodiff"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step updates every parameter from its current Grad.
	Step()

	// ZeroGrad clears all parameter gradients.
	//
	// Backward accumulates, so this must run before each backward pass.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float64
}

// Stateful is implemented by optimizers whose internal state can be saved
// and restored, for example in a checkpoint. Keys refer to parameters by
// their index in the slice passed to the constructor.
type Stateful interface {
	StateDict() map[string]float64
	LoadStateDict(state map[string]float64) error
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float64 // Learning rate
}

// zeroGrad clears the gradient of every parameter.
func zeroGrad(params []*autodiff.Scalar) {
	autodiff.ZeroGrad(params...)
}
