package integration

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AndreyAkinshin/closeness/internal/config"
	"github.com/AndreyAkinshin/closeness/internal/fixture"
	"github.com/AndreyAkinshin/closeness/internal/suite"
	"github.com/AndreyAkinshin/closeness/pkg/closeness"
)

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestSuiteNotFoundError(t *testing.T) {
	t.Parallel()
	_, err := suite.LoadSuite("/nonexistent/path", "*")
	if err == nil {
		t.Error("expected error when loading from nonexistent path")
	}
}

func TestCaseSchemaError(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "broken.json")
	if err := writeFile(path, `{"actual": 1, "expect": {"kind": "value_mismatch"}}`); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	_, err := suite.LoadSuite(tmpDir, "*")
	if err == nil {
		t.Fatal("expected error for a case without expected")
	}
	if !strings.Contains(err.Error(), "broken.json") {
		t.Errorf("error should name the case file, got %v", err)
	}
}

func TestCaseUnknownKindError(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "kind.yaml")
	if err := writeFile(path, "actual: 1\nexpected: 1\nexpect:\n  kind: mismatch\n"); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	if _, err := suite.LoadCase(path); err == nil {
		t.Error("expected error for an unknown failure kind")
	}
}

func TestFileRefTraversalError(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()
	if err := writeFile(filepath.Join(tmpDir, "secret.json"), `1`); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	path := filepath.Join(tmpDir, "cases", "escape.yaml")
	if err := writeFile(path, "actual:\n  $file: ../secret.json\nexpected: 1\n"); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	_, err := suite.LoadCase(path)
	if err == nil {
		t.Fatal("expected error for a $file reference leaving the case directory")
	}
	if !strings.Contains(err.Error(), "..") {
		t.Errorf("error should mention the traversal, got %v", err)
	}
}

func TestTensorNodeError(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "tensor.json")
	if err := writeFile(path, `{"$tensor": {"dtype": "float32", "data": [1, 2], "shape": [3]}}`); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	_, err := fixture.Load(path)
	if err == nil {
		t.Fatal("expected error for data that does not fill the shape")
	}
	if !strings.Contains(err.Error(), "$tensor: ") {
		t.Errorf("error should be prefixed with $tensor, got %v", err)
	}
}

func TestConfigFileMissingError(t *testing.T) {
	t.Parallel()
	_, _, err := config.LoadAndValidate(filepath.Join(t.TempDir(), config.FileName))
	if err == nil {
		t.Error("expected error when loading missing config file")
	}
}

func TestConfigInvalidYAMLError(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, config.FileName)
	if err := writeFile(path, "mode: [close"); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	if _, _, err := config.LoadAndValidate(path); err == nil {
		t.Error("expected error when loading invalid YAML config")
	}
}

func TestConfigToleranceError(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, config.FileName)
	if err := writeFile(path, "atol: 0.001\n"); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	_, _, err := config.LoadAndValidate(path)
	var ve *config.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected a ValidationError, got %v", err)
	}
	if ve.Field != "rtol" {
		t.Errorf("expected field rtol, got %q", ve.Field)
	}
}

func TestOptionToleranceError(t *testing.T) {
	t.Parallel()
	err := closeness.AssertClose(1.0, 1.0, closeness.WithRTol(0.1))
	if !errors.Is(err, closeness.ErrConfiguration) {
		t.Errorf("expected a configuration error, got %v", err)
	}
}
