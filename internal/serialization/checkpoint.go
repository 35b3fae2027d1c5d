package serialization

import (
	"fmt"
	"maps"
	"math"
	"time"

	"github.com/born-ml/scalargrad/internal/autodiff"
	"github.com/born-ml/scalargrad/internal/optim"
)

// Checkpoint is the in-memory form of a checkpoint file.
type Checkpoint struct {
	Params    map[string]float64 // Parameter values by name
	Optimizer *OptimizerState    // nil when no optimizer state was saved
	Step      int64              // Training step
	Loss      float64            // Loss at Step; NaN when unknown
	Metadata  map[string]string  // Free-form annotations
	CreatedAt time.Time          // Set by Write when zero
}

// OptimizerState is the saved state of an optim.Optimizer.
type OptimizerState struct {
	Type  string
	LR    float64
	State map[string]float64
}

// New captures the current value of every named parameter.
func New(params map[string]*autodiff.Scalar) *Checkpoint {
	values := make(map[string]float64, len(params))
	for name, p := range params {
		values[name] = p.Data()
	}
	return &Checkpoint{Params: values, Loss: math.NaN()}
}

// WithOptimizer records the optimizer's type and learning rate, plus its
// internal state when it implements optim.Stateful.
func (c *Checkpoint) WithOptimizer(opt optim.Optimizer) *Checkpoint {
	st := &OptimizerState{Type: optimizerType(opt), LR: opt.GetLR()}
	if s, ok := opt.(optim.Stateful); ok {
		st.State = s.StateDict()
	}
	c.Optimizer = st
	return c
}

// Restore writes saved values into params. Every name in params must be
// present in the checkpoint; extra checkpoint entries are ignored.
func (c *Checkpoint) Restore(params map[string]*autodiff.Scalar) error {
	for name, p := range params {
		if _, ok := c.Params[name]; !ok {
			return fmt.Errorf("%w: %q", ErrMissingParam, name)
		}
		if !p.IsLeaf() || p.IsConstant() {
			return fmt.Errorf("restore %q: not a trainable leaf", name)
		}
	}
	for name, p := range params {
		p.SetData(c.Params[name])
	}
	return nil
}

// RestoreOptimizer loads saved state into opt. The optimizer must be of the
// type that was saved.
func (c *Checkpoint) RestoreOptimizer(opt optim.Optimizer) error {
	if c.Optimizer == nil {
		return fmt.Errorf("restore optimizer: checkpoint has no optimizer state")
	}
	if got := optimizerType(opt); got != c.Optimizer.Type {
		return fmt.Errorf("restore optimizer: checkpoint holds %s state, optimizer is %s", c.Optimizer.Type, got)
	}
	s, ok := opt.(optim.Stateful)
	if !ok {
		return nil
	}
	if err := s.LoadStateDict(maps.Clone(c.Optimizer.State)); err != nil {
		return fmt.Errorf("restore optimizer: %w", err)
	}
	return nil
}

func optimizerType(opt optim.Optimizer) string {
	switch opt.(type) {
	case *optim.SGD:
		return "sgd"
	case *optim.Adam:
		return "adam"
	default:
		return fmt.Sprintf("%T", opt)
	}
}
