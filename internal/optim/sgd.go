package optim

import (
	"fmt"

	"github.com/born-ml/scalargrad/internal/autodiff"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
type SGD struct {
	params     []*autodiff.Scalar
	lr         float64
	momentum   float64
	velocities map[*autodiff.Scalar]float64
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer over leaf parameters.
func NewSGD(params []*autodiff.Scalar, config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}

	return &SGD{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*autodiff.Scalar]float64),
	}
}

// Step performs a single optimization step.
func (s *SGD) Step() {
	for _, p := range s.params {
		grad := p.Grad()
		if s.momentum == 0 {
			p.SetData(p.Data() - s.lr*grad)
			continue
		}
		v := s.momentum*s.velocities[p] + grad
		s.velocities[p] = v
		p.SetData(p.Data() - s.lr*v)
	}
}

// ZeroGrad clears gradients for all parameters.
func (s *SGD) ZeroGrad() {
	zeroGrad(s.params)
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD) SetLR(lr float64) {
	s.lr = lr
}

// StateDict returns the velocity of every parameter that has one, keyed
// "velocity.{param_index}". Empty without momentum.
func (s *SGD) StateDict() map[string]float64 {
	state := make(map[string]float64)
	if s.momentum == 0 {
		return state
	}
	for i, p := range s.params {
		if v, ok := s.velocities[p]; ok {
			state[fmt.Sprintf("velocity.%d", i)] = v
		}
	}
	return state
}

// LoadStateDict restores velocities saved by StateDict. Keys that do not
// name a parameter index are rejected.
func (s *SGD) LoadStateDict(state map[string]float64) error {
	if s.momentum == 0 {
		return nil
	}

	velocities := make(map[*autodiff.Scalar]float64, len(state))
	for key, v := range state {
		var i int
		if _, err := fmt.Sscanf(key, "velocity.%d", &i); err != nil {
			return fmt.Errorf("sgd: bad state key %q: %w", key, err)
		}
		if i < 0 || i >= len(s.params) {
			return fmt.Errorf("sgd: state key %q: index out of range [0, %d)", key, len(s.params))
		}
		velocities[s.params[i]] = v
	}
	s.velocities = velocities
	return nil
}
