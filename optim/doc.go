// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides gradient-descent optimizers for scalar parameters.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Optimizer interface for custom optimizers
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/scalargrad/autodiff"
//	    "github.com/born-ml/scalargrad/optim"
//	)
//
//	func main() {
//	    w := autodiff.New(0).WithLabel("w")
//	    optimizer := optim.NewAdam([]*autodiff.Scalar{w}, optim.AdamConfig{LR: 0.01})
//
//	    for range 100 {
//	        optimizer.ZeroGrad()
//	        loss := w.SubConst(3).PowConst(2) // rebuilt each step
//	        if err := autodiff.Backward(loss); err != nil {
//	            log.Fatal(err)
//	        }
//	        optimizer.Step()
//	    }
//	}
//
// Parameters must be leaves; the forward graph is rebuilt after each Step.
package optim
