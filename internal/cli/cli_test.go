package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndreyAkinshin/closeness/internal/output"
	"github.com/AndreyAkinshin/closeness/pkg/exitcode"
)

type result struct {
	code   int
	stdout string
	stderr string
	logs   string
}

// execute runs the CLI against a fresh configuration file in dir.
func execute(t *testing.T, dir, cfg string, args ...string) result {
	t.Helper()
	cfgPath := filepath.Join(dir, ".closeness.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	var stdout, stderr, logs bytes.Buffer
	out := output.NewWithWriters(&stdout, &stderr, false)
	code := run(append([]string{"--config", cfgPath}, args...), out, &logs)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String(), logs: logs.String()}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestVersion(t *testing.T) {
	t.Parallel()
	var stdout, stderr bytes.Buffer
	code := run([]string{"version"}, output.NewWithWriters(&stdout, &stderr, false), &bytes.Buffer{})
	assert.Equal(t, exitcode.Success, code)
	assert.Equal(t, "closeness dev\n", stdout.String())
	assert.Empty(t, stderr.String())
}

func TestCompare(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	actual := writeFile(t, dir, "actual.json", `{"loss": 0.25, "steps": [1, 2, 3]}`)
	same := writeFile(t, dir, "same.yaml", "loss: 0.25\nsteps: [1, 2, 3]\n")
	off := writeFile(t, dir, "off.json", `{"loss": 0.5, "steps": [1, 2, 3]}`)
	near := writeFile(t, dir, "near.hcl", "loss = 0.2500001\nsteps = [1, 2, 3]\n")

	tests := []struct {
		name       string
		cfg        string
		args       []string
		wantCode   int
		wantStdout []string
		wantStderr string
	}{
		{
			name:       "identical documents",
			args:       []string{"compare", actual, same},
			wantCode:   exitcode.Success,
			wantStdout: []string{"OK: inputs are close."},
		},
		{
			name:       "value mismatch",
			args:       []string{"compare", actual, off},
			wantCode:   exitcode.Failure,
			wantStdout: []string{"FAIL: Value Mismatch", "  Scalars are not close!", `item ["loss"]`},
		},
		{
			name:       "within explicit tolerance",
			args:       []string{"compare", "--rtol", "1e-3", "--atol", "0", actual, near},
			wantCode:   exitcode.Success,
			wantStdout: []string{"OK: inputs are close."},
		},
		{
			name:       "equal mode from flag",
			args:       []string{"compare", "--mode", "equal", actual, near},
			wantCode:   exitcode.Failure,
			wantStdout: []string{"FAIL: Value Mismatch", "0.25 != 0.2500001"},
		},
		{
			name:       "equal mode from config",
			cfg:        "mode: equal\n",
			args:       []string{"compare", actual, same},
			wantCode:   exitcode.Success,
			wantStdout: []string{"OK: inputs are equal."},
		},
		{
			name:       "message override",
			args:       []string{"compare", "--message", "loss drifted", actual, off},
			wantCode:   exitcode.Failure,
			wantStdout: []string{"  loss drifted"},
		},
		{
			name:       "rtol without atol",
			args:       []string{"compare", "--rtol", "0.1", actual, off},
			wantCode:   exitcode.ConfigError,
			wantStderr: "closeness: Both 'rtol' and 'atol' must be either specified or omitted",
		},
		{
			name:       "unknown mode",
			args:       []string{"compare", "--mode", "fuzzy", actual, off},
			wantCode:   exitcode.ConfigError,
			wantStderr: "closeness: ",
		},
		{
			name:       "missing input",
			args:       []string{"compare", actual, filepath.Join(dir, "missing.json")},
			wantCode:   exitcode.Failure,
			wantStderr: "input file not found",
		},
		{
			name:       "wrong argument count",
			args:       []string{"compare", actual},
			wantCode:   exitcode.Failure,
			wantStderr: "accepts 2 arg(s)",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := execute(t, t.TempDir(), tt.cfg, tt.args...)
			assert.Equal(t, tt.wantCode, res.code, "stdout: %s\nstderr: %s", res.stdout, res.stderr)
			for _, want := range tt.wantStdout {
				assert.Contains(t, res.stdout, want)
			}
			if tt.wantStderr != "" {
				assert.Contains(t, res.stderr, tt.wantStderr)
			}
			if tt.wantCode == exitcode.Failure && tt.wantStderr == "" {
				assert.NotContains(t, res.stderr, "closeness:", "mismatches are reported once on stdout")
			}
		})
	}
}

func TestCompare_InvalidDocument(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	good := writeFile(t, dir, "good.json", `[1]`)
	bad := writeFile(t, dir, "bad.json", `{"$tensor": {"dtype": "float32", "data": [[1], [2, 3]]}}`)

	res := execute(t, dir, "", "compare", good, bad)
	assert.Equal(t, exitcode.ConfigError, res.code)
	assert.Contains(t, res.stderr, "closeness: ["+bad+"] compare: ")
	assert.Contains(t, res.stderr, "$tensor: ")
}

func TestConfigErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	doc := writeFile(t, dir, "doc.json", `1`)

	res := execute(t, dir, "rtol: 0.1\n", "compare", doc, doc)
	assert.Equal(t, exitcode.ConfigError, res.code)
	assert.Contains(t, res.stderr, "atol")

	res = execute(t, dir, "", "--log-format", "xml", "compare", doc, doc)
	assert.Equal(t, exitcode.ConfigError, res.code)
	assert.Contains(t, res.stderr, "logging: invalid log format")

	res = execute(t, dir, "logging:\n  level: loud\n", "compare", doc, doc)
	assert.Equal(t, exitcode.ConfigError, res.code)

	res = execute(t, dir, "colour: blue\n", "compare", doc, doc)
	assert.Equal(t, exitcode.Success, res.code)
	assert.Contains(t, res.stderr, `warning: unknown field "colour" at root level (ignored)`)
}

func TestVerboseLogging(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	doc := writeFile(t, dir, "doc.json", `[1, 2]`)

	res := execute(t, dir, "", "--verbose", "--log-format", "json", "compare", doc, doc)
	require.Equal(t, exitcode.Success, res.code)
	assert.Contains(t, res.logs, `"command":"compare"`)
	assert.Contains(t, res.logs, `"level":"debug"`)

	res = execute(t, dir, "", "compare", doc, doc)
	require.Equal(t, exitcode.Success, res.code)
	assert.Empty(t, res.logs)
}

func TestSuite(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cases := filepath.Join(dir, "cases")
	writeFile(t, cases, "a_scalar.yaml", "actual: 1.0\nexpected: 1.0\n")
	writeFile(t, cases, "b_expected_failure.json", `{
  "actual": [1, 2],
  "expected": [1, 3],
  "expect": {"kind": "value_mismatch", "message_contains": "Scalars are not equal"}
}`)
	writeFile(t, cases, "c_file_ref.yaml", "actual:\n  $file: _data/weights.json\nexpected: [0.5, 0.25]\n")
	writeFile(t, cases, "_data/weights.json", `[0.5, 0.25]`)

	res := execute(t, dir, "suite:\n  directory: "+cases+"\n", "suite")
	assert.Equal(t, exitcode.Success, res.code, res.stdout)
	assert.Contains(t, res.stdout, "=== Suite "+cases+" ===")
	assert.Contains(t, res.stdout, "+ a_scalar")
	assert.Contains(t, res.stdout, "All 3 cases passed.")
	assert.NotContains(t, res.stdout, "weights")

	writeFile(t, cases, "d_broken.json", `{"actual": {"x": 1}, "expected": {"y": 1}}`)
	res = execute(t, dir, "", "suite", cases)
	assert.Equal(t, exitcode.Failure, res.code)
	assert.Contains(t, res.stdout, "x d_broken")
	assert.Contains(t, res.stdout, "Failed Cases:")
	assert.Contains(t, res.stdout, "Structural Mismatch")
	assert.Contains(t, res.stdout, "1 of 4 cases failed.")
	assert.NotContains(t, res.stderr, "closeness:")

	res = execute(t, dir, "", "suite", "--pattern", "a_*", cases)
	assert.Equal(t, exitcode.Success, res.code)
	assert.Contains(t, res.stdout, "All 1 cases passed.")

	res = execute(t, dir, "", "suite", filepath.Join(dir, "nowhere"))
	assert.Equal(t, exitcode.Failure, res.code)
	assert.Contains(t, res.stderr, "suite directory not found")
}

func TestTolerances(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	res := execute(t, dir, "", "tolerances", "float32")
	require.Equal(t, exitcode.Success, res.code)
	assert.Contains(t, res.stdout, "DType")
	assert.Contains(t, res.stdout, "float32  1.3e-06  1e-05")
	assert.NotContains(t, res.stdout, "combined")

	res = execute(t, dir, "", "tolerances", "torch.half", "double")
	require.Equal(t, exitcode.Success, res.code)
	assert.Contains(t, res.stdout, "combined")

	res = execute(t, dir, "", "tolerances")
	require.Equal(t, exitcode.Success, res.code)
	assert.Contains(t, res.stdout, "bfloat16")
	assert.Contains(t, res.stdout, "qint8")

	res = execute(t, dir, "", "tolerances", "float8")
	assert.Equal(t, exitcode.ConfigError, res.code)
	assert.Contains(t, res.stderr, `unknown dtype "float8" (run 'closeness tolerances' for the known dtypes)`)
}
