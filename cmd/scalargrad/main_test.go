package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/scalargrad/internal/autodiff"
	"github.com/born-ml/scalargrad/internal/config"
	"github.com/born-ml/scalargrad/internal/expr"
)

// run executes the CLI with args and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	for _, env := range []string{config.EnvFormat, config.EnvPrecision, config.EnvWorkers, config.EnvLogLevel} {
		t.Setenv(env, "")
	}

	var out, errOut bytes.Buffer
	cmd := newRootCommand(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scalargrad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestGrad_Text(t *testing.T) {
	out, _, err := run(t, "grad", "x * w + x ** 2", "--var", "x=2", "--var", "w=3")
	require.NoError(t, err)

	want := "x * w + x ** 2 = 10.0000\n" +
		"  d/w = 2.0000\n" +
		"  d/x = 7.0000\n"
	assert.Equal(t, want, out)
}

func TestGrad_YAML(t *testing.T) {
	out, _, err := run(t, "grad", "x / w", "w - x", "--var", "x=6", "--var", "w=3", "--format", "yaml")
	require.NoError(t, err)

	var got []result
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)

	assert.Equal(t, "x / w", got[0].Expression)
	assert.InDelta(t, 2.0, got[0].Value, 1e-12)
	assert.InDelta(t, 1.0/3, got[0].Gradients["x"], 1e-12)
	assert.InDelta(t, -6.0/9, got[0].Gradients["w"], 1e-12)

	assert.Equal(t, "w - x", got[1].Expression)
	assert.Equal(t, map[string]float64{"w": 1, "x": -1}, got[1].Gradients)
}

func TestGrad_FromConfig(t *testing.T) {
	path := writeConfig(t, `
variables:
  x: 2
  w: {value: 3, label: weight}
expressions:
  - x * w
  - x ** 3
  - w + w
output:
  precision: 2
parallel:
  workers: 2
`)

	out, _, err := run(t, "grad", "--config", path)
	require.NoError(t, err)

	want := "x * w = 6.00\n" +
		"  d/w = 2.00\n" +
		"  d/x = 3.00\n" +
		"x ** 3 = 8.00\n" +
		"  d/x = 12.00\n" +
		"w + w = 6.00\n" +
		"  d/w = 2.00\n"
	assert.Equal(t, want, out)
}

func TestGrad_VarOverridesConfig(t *testing.T) {
	path := writeConfig(t, "variables:\n  x: 1\nexpressions:\n  - x * x\n")

	out, _, err := run(t, "grad", "--config", path, "--var", "x=5")
	require.NoError(t, err)
	assert.Equal(t, "x * x = 25.0000\n  d/x = 10.0000\n", out)
}

func TestGrad_NoExpressions(t *testing.T) {
	_, _, err := run(t, "grad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no expressions")
}

func TestGrad_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"division by zero", []string{"grad", "x / y", "--var", "x=1", "--var", "y=0"}, autodiff.ErrDivisionByZero},
		{"domain", []string{"grad", "x ** 0.5", "--var", "x=-4"}, autodiff.ErrDomain},
		{"unknown variable", []string{"grad", "x + z", "--var", "x=1"}, expr.ErrUnknownVariable},
		{"bad format", []string{"grad", "x", "--var", "x=1", "--format", "json"}, config.ErrInvalid},
		{"bad workers", []string{"grad", "x", "--var", "x=1", "--workers", "-2"}, config.ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFlags_Invalid(t *testing.T) {
	for _, args := range [][]string{
		{"grad", "x", "--var", "x"},
		{"grad", "x", "--var", "x=abc"},
		{"grad", "x", "--var", "=1"},
		{"print", "x", "--var", "x=1", "--color", "sometimes"},
		{"grad", "x", "--var", "x=1", "--log-level", "loud"},
	} {
		_, _, err := run(t, args...)
		assert.Error(t, err, strings.Join(args, " "))
	}
}

func TestDot(t *testing.T) {
	out, _, err := run(t, "dot", "x * w", "--var", "x=2", "--var", "w=3", "--name", "loss", "--rankdir", "TB")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "digraph \"loss\" {\n\trankdir=TB;\n"), out)
	assert.Contains(t, out, `label="{ x | data 2.0000 | grad 3.0000 }"`)
	assert.Contains(t, out, `label="{ w | data 3.0000 | grad 2.0000 }"`)
	assert.Contains(t, out, `[label="*"]`)
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestDot_RequiresOneExpression(t *testing.T) {
	_, _, err := run(t, "dot")
	assert.Error(t, err)

	_, _, err = run(t, "dot", "x", "y")
	assert.Error(t, err)
}

func TestPrint(t *testing.T) {
	path := writeConfig(t, "variables:\n  w: {value: 3, label: weight}\n")

	out, _, err := run(t, "print", "w * x", "--config", path, "--var", "x=2", "--color", "never", "--indent", "4")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, " | data 6.0000 | grad 1.0000 | op *", lines[0])
	assert.Equal(t, "    weight | data 3.0000 | grad 2.0000 | op ", lines[1])
	assert.Equal(t, "    x | data 2.0000 | grad 3.0000 | op ", lines[2])
}

func TestPrint_ForcedColor(t *testing.T) {
	out, _, err := run(t, "print", "x", "--var", "x=1", "--color", "always")
	require.NoError(t, err)
	assert.Contains(t, out, "\x1b[")
}

func TestDebugLogging(t *testing.T) {
	_, errOut, err := run(t, "grad", "x + 1", "--var", "x=1", "--log-level", "debug")
	require.NoError(t, err)
	assert.Contains(t, errOut, "level=DEBUG")
	assert.Contains(t, errOut, "differentiated")

	_, errOut, err = run(t, "grad", "x + 1", "--var", "x=1")
	require.NoError(t, err)
	assert.Empty(t, errOut)
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "scalargrad "+version+"\n", out)
}

func TestParseVar(t *testing.T) {
	name, v, err := parseVar(" lr = 0.5 ")
	require.NoError(t, err)
	assert.Equal(t, "lr", name)
	assert.Equal(t, 0.5, v)
}
