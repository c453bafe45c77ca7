package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndreyAkinshin/closeness/pkg/closeness"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAndValidate(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, t.TempDir(), `
mode: equal
rtol: 1.0e-4
atol: 1.0e-6
equal_nan: true
checks:
  stride: true
  device: false
message: values drifted
logging:
  level: debug
suite:
  directory: testdata
colour: red
`)

	cfg, warnings, err := LoadAndValidate(path)
	require.NoError(t, err)
	assert.Equal(t, []string{`unknown field "colour" at root level (ignored)`}, warnings)
	assert.Equal(t, "equal", cfg.Mode)
	require.NotNil(t, cfg.RTol)
	assert.Equal(t, 1e-4, *cfg.RTol)
	require.NotNil(t, cfg.Checks)
	require.NotNil(t, cfg.Checks.Stride)
	assert.True(t, *cfg.Checks.Stride)
	assert.Nil(t, cfg.Checks.DType)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Logging.Format)
	assert.Equal(t, "testdata", cfg.Suite.Directory)
	assert.Equal(t, DefaultSuitePattern, cfg.Suite.Pattern)
}

func TestLoadAndValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"schema", "mode: approximately\n", ""},
		{"negative tolerance", "rtol: -1\natol: 0\n", ""},
		{"unknown check", "checks:\n  shape: true\n", ""},
		{"bad yaml", "mode: [close\n", ""},
		{"rtol only", "rtol: 0.1\n", "atol"},
		{"atol only", "atol: 0.1\n", "rtol"},
		{"bad pattern", "suite:\n  pattern: \"[\"\n", "suite.pattern"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeConfig(t, t.TempDir(), tt.content)
			_, _, err := LoadAndValidate(path)
			require.Error(t, err)
			if tt.field != "" {
				var verr *ValidationError
				require.True(t, errors.As(err, &verr), "got %v", err)
				assert.Equal(t, tt.field, verr.Field)
			}
		})
	}
}

func TestLoadAndValidate_Empty(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, t.TempDir(), "")
	cfg, warnings, err := LoadAndValidate(path)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, Default(), cfg)
}

func TestLoad(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, t.TempDir(), "mode: equal\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "equal", cfg.Mode)
	assert.Nil(t, cfg.Logging, "Load does not apply defaults")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	t.Parallel()
	cfg := Default()
	assert.Equal(t, DefaultMode, cfg.Mode)
	assert.Equal(t, DefaultLogLevel, cfg.Logging.Level)
	assert.Equal(t, DefaultSuiteDirectory, cfg.Suite.Directory)
	assert.NoError(t, Validate(cfg))
	assert.Empty(t, cfg.Options())
}

func TestFindAndDiscover(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	_, err := Find(nested)
	assert.ErrorIs(t, err, ErrNotFound)
	cfg, path, _, err := Discover(nested)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, Default(), cfg)

	want := writeConfig(t, root, "mode: equal\n")
	got, err := Find(nested)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	cfg, path, _, err = Discover(nested)
	require.NoError(t, err)
	assert.Equal(t, want, path)
	assert.Equal(t, "equal", cfg.Mode)

	writeConfig(t, nested, "mode: nope\n")
	_, _, _, err = Discover(nested)
	assert.Error(t, err)
}

func TestOptions(t *testing.T) {
	t.Parallel()
	rtol, atol := 0.0, 0.5
	yes, no := true, false
	cfg := &Config{
		RTol:            &rtol,
		ATol:            &atol,
		EqualNaN:        &yes,
		AllowSubclasses: &no,
		Message:         "custom",
		Checks:          &ChecksConfig{Device: &no, DType: &no, Layout: &no, Stride: &yes, IsCoalesced: &no},
	}

	got := closeness.NewConfig(cfg.Options()...)
	require.NotNil(t, got.RTol)
	assert.Equal(t, 0.0, *got.RTol)
	require.NotNil(t, got.ATol)
	assert.Equal(t, 0.5, *got.ATol)
	assert.True(t, got.EqualNaN)
	assert.False(t, got.AllowSubclasses)
	assert.Equal(t, "custom", got.Message)
	assert.False(t, got.CheckDevice)
	require.NotNil(t, got.CheckDType)
	assert.False(t, *got.CheckDType)
	assert.False(t, got.CheckLayout)
	assert.True(t, got.CheckStride)
	assert.False(t, got.CheckIsCoalesced)

	assert.NoError(t, closeness.AssertClose(1.0, 1.4, cfg.Options()...))
}
