package parallel

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/scalargrad/internal/autodiff"
)

func TestFor(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinBatch: 2}

	var counter int64
	n := 1000

	err := For(context.Background(), n, func(_ context.Context, _ int) error {
		atomic.AddInt64(&counter, 1)
		return nil
	}, cfg)

	require.NoError(t, err)
	assert.Equal(t, int64(n), counter)
}

func TestFor_Sequential(t *testing.T) {
	cfg := Config{Enabled: false}

	var order []int
	err := For(context.Background(), 5, func(_ context.Context, i int) error {
		order = append(order, i)
		return nil
	}, cfg)

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestFor_SmallBatch(t *testing.T) {
	// Batches under MinBatch run inline.
	cfg := Config{Enabled: true, NumWorkers: 8, MinBatch: 10}

	var order []int
	err := For(context.Background(), 3, func(_ context.Context, i int) error {
		order = append(order, i)
		return nil
	}, cfg)

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestFor_FirstError(t *testing.T) {
	boom := errors.New("boom")

	for _, cfg := range []Config{{Enabled: false}, {Enabled: true, NumWorkers: 2, MinBatch: 1}} {
		err := For(context.Background(), 10, func(_ context.Context, i int) error {
			if i == 3 {
				return boom
			}
			return nil
		}, cfg)
		assert.ErrorIs(t, err, boom)
	}
}

func TestFor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int64
	for _, cfg := range []Config{{Enabled: false}, {Enabled: true, NumWorkers: 2, MinBatch: 1}} {
		err := For(ctx, 10, func(_ context.Context, _ int) error {
			atomic.AddInt64(&calls, 1)
			return nil
		}, cfg)
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Zero(t, calls)
}

func TestWithWorkers(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 8, MinBatch: 2}

	assert.Equal(t, cfg, cfg.WithWorkers(0))
	assert.Equal(t, Config{Enabled: false, NumWorkers: 1, MinBatch: 2}, cfg.WithWorkers(1))
	assert.Equal(t, Config{Enabled: true, NumWorkers: 3, MinBatch: 2}, cfg.WithWorkers(3))
}

// TestMap_IndependentGraphs differentiates many disjoint graphs at once and
// checks that none of them sees another's gradients.
func TestMap_IndependentGraphs(t *testing.T) {
	type job struct {
		x, w float64
	}
	jobs := make([]job, 64)
	for i := range jobs {
		jobs[i] = job{x: float64(i), w: float64(2*i + 1)}
	}

	type result struct {
		value, gx, gw float64
	}
	cfg := Config{Enabled: true, NumWorkers: 8, MinBatch: 2}

	results, err := Map(context.Background(), jobs, func(_ context.Context, j job) (result, error) {
		x, w := autodiff.New(j.x), autodiff.New(j.w)
		y := x.Mul(w).Add(x)
		if err := autodiff.Backward(y); err != nil {
			return result{}, fmt.Errorf("job %v: %w", j, err)
		}
		return result{value: y.Data(), gx: x.Grad(), gw: w.Grad()}, nil
	}, cfg)
	require.NoError(t, err)
	require.Len(t, results, len(jobs))

	for i, r := range results {
		j := jobs[i]
		assert.Equal(t, j.x*j.w+j.x, r.value)
		assert.Equal(t, j.w+1, r.gx)
		assert.Equal(t, j.x, r.gw)
	}
}

func TestMap_Error(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 2, MinBatch: 1}

	out, err := Map(context.Background(), []float64{1, 0, 2}, func(_ context.Context, d float64) (float64, error) {
		y, err := autodiff.Try(func() *autodiff.Scalar { return autodiff.New(1).DivConst(d) })
		if err != nil {
			return 0, err
		}
		return y.Data(), nil
	}, cfg)

	assert.Nil(t, out)
	assert.ErrorIs(t, err, autodiff.ErrDivisionByZero)
}

func BenchmarkMap(b *testing.B) {
	cfg := DefaultConfig()
	items := make([]float64, 256)
	for i := range items {
		items[i] = float64(i + 1)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Map(context.Background(), items, func(_ context.Context, v float64) (float64, error) {
			x := autodiff.New(v)
			y := x.PowConst(3).Sub(x.MulConst(2))
			if err := autodiff.Backward(y); err != nil {
				return 0, err
			}
			return x.Grad(), nil
		}, cfg)
	}
}
