package expr_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/scalargrad/internal/autodiff"
	"github.com/born-ml/scalargrad/internal/expr"
)

// TestCompile_Gradients tests forward values and gradients of parsed sources.
func TestCompile_Gradients(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		values    map[string]float64
		wantValue float64
		wantGrads map[string]float64
	}{
		{
			name:      "product",
			src:       "x * w",
			values:    map[string]float64{"x": 3, "w": 4},
			wantValue: 12,
			wantGrads: map[string]float64{"x": 4, "w": 3},
		},
		{
			name:      "fan out",
			src:       "x + x",
			values:    map[string]float64{"x": 3},
			wantValue: 6,
			wantGrads: map[string]float64{"x": 2},
		},
		{
			name:      "division",
			src:       "x / w",
			values:    map[string]float64{"x": 6, "w": 3},
			wantValue: 2,
			wantGrads: map[string]float64{"x": 1.0 / 3.0, "w": -6.0 / 9.0},
		},
		{
			name:      "power",
			src:       "x ** 3",
			values:    map[string]float64{"x": 2},
			wantValue: 8,
			wantGrads: map[string]float64{"x": 12},
		},
		{
			name:      "caret power",
			src:       "x ^ 2",
			values:    map[string]float64{"x": 5},
			wantValue: 25,
			wantGrads: map[string]float64{"x": 10},
		},
		{
			name:      "reflected subtraction",
			src:       "5 - x",
			values:    map[string]float64{"x": 2},
			wantValue: 3,
			wantGrads: map[string]float64{"x": -1},
		},
		{
			name:      "precedence and unary minus",
			src:       "-x ** 2 + 2 * x * w - (w - 1) / 2",
			values:    map[string]float64{"x": 3, "w": 5},
			wantValue: -9 + 30 - 2,
			wantGrads: map[string]float64{"x": -6 + 10, "w": 6 - 0.5},
		},
		{
			name:      "negative literal and float",
			src:       "x * -2.5 + +x",
			values:    map[string]float64{"x": 2},
			wantValue: -3,
			wantGrads: map[string]float64{"x": -1.5},
		},
		{
			name:      "unused binding ignored",
			src:       "a + 1",
			values:    map[string]float64{"a": 1, "b": 2},
			wantValue: 2,
			wantGrads: map[string]float64{"a": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := expr.Compile(tt.src, tt.values)
			require.NoError(t, err)

			assert.InDelta(t, tt.wantValue, e.Value(), 1e-12)
			require.NoError(t, e.Backward())

			grads := e.Gradients()
			require.Len(t, grads, len(tt.wantGrads))
			for name, want := range tt.wantGrads {
				assert.InDelta(t, want, grads[name], 1e-12, "gradient of %s", name)
			}
		})
	}
}

// TestCompile_MatchesHandBuilt tests that parsing gives the same graph
// semantics as the method API.
func TestCompile_MatchesHandBuilt(t *testing.T) {
	e, err := expr.Compile("(a * b - c) / (a + c)", map[string]float64{"a": 1.5, "b": -2, "c": 0.5})
	require.NoError(t, err)
	require.NoError(t, e.Backward())

	a, b, c := autodiff.New(1.5), autodiff.New(-2), autodiff.New(0.5)
	y := a.Mul(b).Sub(c).Div(a.Add(c))
	require.NoError(t, autodiff.Backward(y))

	assert.Equal(t, y.Data(), e.Value())
	assert.Equal(t, a.Grad(), e.Vars["a"].Grad())
	assert.Equal(t, b.Grad(), e.Vars["b"].Grad())
	assert.Equal(t, c.Grad(), e.Vars["c"].Grad())
}

// TestCompile_LabelsAndNames tests leaf labels and the sorted name list.
func TestCompile_LabelsAndNames(t *testing.T) {
	e, err := expr.Compile("z * a + m", map[string]float64{"z": 1, "a": 2, "m": 3})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "m", "z"}, e.Names())
	assert.Equal(t, "z", e.Vars["z"].Label())
	assert.Equal(t, "z * a + m", e.Source)
}

// TestCompile_Reset tests zeroing an expression's gradients.
func TestCompile_Reset(t *testing.T) {
	e, err := expr.Compile("x * x", map[string]float64{"x": 3})
	require.NoError(t, err)
	require.NoError(t, e.Backward())
	require.Equal(t, 6.0, e.Gradients()["x"])

	e.Reset()
	assert.Equal(t, 0.0, e.Gradients()["x"])
}

// TestCompile_Errors tests the error paths.
func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		values  map[string]float64
		wantErr error
	}{
		{"unknown variable", "x + y", map[string]float64{"x": 1}, expr.ErrUnknownVariable},
		{"comparison", "x > 1", map[string]float64{"x": 1}, expr.ErrUnsupported},
		{"function call", "abs(x)", map[string]float64{"x": 1}, expr.ErrUnsupported},
		{"string literal", `"a"`, nil, expr.ErrUnsupported},
		{"not", "!x", map[string]float64{"x": 1}, expr.ErrUnsupported},
		{"division by zero", "x / (x - 1)", map[string]float64{"x": 1}, autodiff.ErrDivisionByZero},
		{"fractional power of negative", "x ** 0.5", map[string]float64{"x": -4}, autodiff.ErrDomain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := expr.Compile(tt.src, tt.values)
			assert.Nil(t, e)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// TestCompile_ParseError tests malformed input.
func TestCompile_ParseError(t *testing.T) {
	_, err := expr.Compile("x +", map[string]float64{"x": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expr: parse")
}

// TestBuild_SharedLeaves tests building several graphs over the same leaves.
func TestBuild_SharedLeaves(t *testing.T) {
	w := autodiff.New(2).WithLabel("w")
	env := map[string]*autodiff.Scalar{"w": w}

	y1, err := expr.Build("w * 3", env)
	require.NoError(t, err)
	y2, err := expr.Build("w ** 2", env)
	require.NoError(t, err)

	loss := y1.Add(y2)
	require.NoError(t, autodiff.Backward(loss))

	assert.InDelta(t, 3+2*2, w.Grad(), 1e-12)
	assert.InDelta(t, 6+4, loss.Data(), 1e-12)
	assert.False(t, math.IsNaN(loss.Data()))
}
