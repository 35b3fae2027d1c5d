package optim

import (
	"fmt"
	"math"

	"github.com/born-ml/scalargrad/internal/autodiff"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)  // Parameter update
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam struct {
	params []*autodiff.Scalar
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64
	t      int                          // Timestep for bias correction
	m      map[*autodiff.Scalar]float64 // First moment estimates
	v      map[*autodiff.Scalar]float64 // Second moment estimates
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float64    // Learning rate (default: 0.001)
	Betas [2]float64 // Running average coefficients (default: [0.9, 0.999])
	Eps   float64    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer over leaf parameters.
func NewAdam(params []*autodiff.Scalar, config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	return &Adam{
		params: params,
		lr:     config.LR,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
		m:      make(map[*autodiff.Scalar]float64),
		v:      make(map[*autodiff.Scalar]float64),
	}
}

// Step performs a single optimization step.
func (a *Adam) Step() {
	a.t++
	bc1 := 1 - math.Pow(a.beta1, float64(a.t))
	bc2 := 1 - math.Pow(a.beta2, float64(a.t))

	for _, p := range a.params {
		g := p.Grad()
		m := a.beta1*a.m[p] + (1-a.beta1)*g
		v := a.beta2*a.v[p] + (1-a.beta2)*g*g
		a.m[p], a.v[p] = m, v

		mHat := m / bc1
		vHat := v / bc2
		p.SetData(p.Data() - a.lr*mHat/(math.Sqrt(vHat)+a.eps))
	}
}

// ZeroGrad clears gradients for all parameters.
func (a *Adam) ZeroGrad() {
	zeroGrad(a.params)
}

// GetLR returns the current learning rate.
func (a *Adam) GetLR() float64 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam) SetLR(lr float64) {
	a.lr = lr
}

// Steps returns the number of steps taken.
func (a *Adam) Steps() int {
	return a.t
}

// StateDict returns the moment estimates keyed "m.{i}" and "v.{i}" plus the
// timestep under "step".
func (a *Adam) StateDict() map[string]float64 {
	state := map[string]float64{"step": float64(a.t)}
	for i, p := range a.params {
		if m, ok := a.m[p]; ok {
			state[fmt.Sprintf("m.%d", i)] = m
		}
		if v, ok := a.v[p]; ok {
			state[fmt.Sprintf("v.%d", i)] = v
		}
	}
	return state
}

// LoadStateDict restores state saved by StateDict.
func (a *Adam) LoadStateDict(state map[string]float64) error {
	m := make(map[*autodiff.Scalar]float64, len(a.params))
	v := make(map[*autodiff.Scalar]float64, len(a.params))
	t := 0

	for key, val := range state {
		if key == "step" {
			if val < 0 || val != math.Trunc(val) {
				return fmt.Errorf("adam: bad step %v", val)
			}
			t = int(val)
			continue
		}

		var (
			moment rune
			i      int
		)
		if _, err := fmt.Sscanf(key, "%c.%d", &moment, &i); err != nil || (moment != 'm' && moment != 'v') {
			return fmt.Errorf("adam: bad state key %q", key)
		}
		if i < 0 || i >= len(a.params) {
			return fmt.Errorf("adam: state key %q: index out of range [0, %d)", key, len(a.params))
		}
		if moment == 'm' {
			m[a.params[i]] = val
		} else {
			v[a.params[i]] = val
		}
	}

	a.t, a.m, a.v = t, m, v
	return nil
}
