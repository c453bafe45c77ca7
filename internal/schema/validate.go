// Package schema validates closeness documents against the embedded JSON schemas.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	schemafs "github.com/AndreyAkinshin/closeness/schema"
)

const (
	configSchemaName   = "config.schema.json"
	tensorSchemaName   = "tensor.schema.json"
	testcaseSchemaName = "testcase.schema.json"
)

var (
	configSchema   *jsonschema.Schema
	tensorSchema   *jsonschema.Schema
	testcaseSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

// compileSchemas compiles all embedded schemas once.
func compileSchemas() error {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()

		for _, name := range []string{configSchemaName, tensorSchemaName, testcaseSchemaName} {
			data, err := schemafs.FS.ReadFile(name)
			if err != nil {
				compileErr = fmt.Errorf("read %s: %w", name, err)
				return
			}
			doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
			if err != nil {
				compileErr = fmt.Errorf("unmarshal %s: %w", name, err)
				return
			}
			if err := compiler.AddResource(name, doc); err != nil {
				compileErr = fmt.Errorf("add %s resource: %w", name, err)
				return
			}
		}

		var err error
		if configSchema, err = compiler.Compile(configSchemaName); err != nil {
			compileErr = fmt.Errorf("compile config schema: %w", err)
			return
		}
		if tensorSchema, err = compiler.Compile(tensorSchemaName); err != nil {
			compileErr = fmt.Errorf("compile tensor schema: %w", err)
			return
		}
		if testcaseSchema, err = compiler.Compile(testcaseSchemaName); err != nil {
			compileErr = fmt.Errorf("compile testcase schema: %w", err)
			return
		}
	})

	return compileErr
}

// ValidateConfig validates JSON data against the config schema.
func ValidateConfig(data []byte) error {
	if err := compileSchemas(); err != nil {
		return err
	}

	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := configSchema.Validate(v); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// ValidateTensor validates the body of a decoded $tensor node.
func ValidateTensor(node any) error {
	if err := compileSchemas(); err != nil {
		return err
	}
	return validateValue(tensorSchema, node, "tensor")
}

// ValidateCase validates a decoded comparison case document.
func ValidateCase(doc any) error {
	if err := compileSchemas(); err != nil {
		return err
	}
	return validateValue(testcaseSchema, doc, "case")
}

// validateValue round-trips v through JSON so that values decoded from YAML or
// HCL reach the validator in the shape it expects.
func validateValue(s *jsonschema.Schema, v any, what string) error {
	data, err := json.Marshal(jsonSafe(v))
	if err != nil {
		return fmt.Errorf("%s is not representable as JSON: %w", what, err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := s.Validate(inst); err != nil {
		return fmt.Errorf("%s validation failed: %w", what, err)
	}
	return nil
}

// jsonSafe replaces values encoding/json rejects. Non-finite floats become
// their names and maps with non-string keys are keyed by their printed form.
func jsonSafe(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Sprint(x)
		}
		return x
	case float32:
		return jsonSafe(float64(x))
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = jsonSafe(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = jsonSafe(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[fmt.Sprint(k)] = jsonSafe(e)
		}
		return out
	}
	return v
}

// ValidateConfigValue validates a decoded configuration document, such as
// the result of unmarshalling .closeness.yaml into an any.
func ValidateConfigValue(doc any) error {
	if err := compileSchemas(); err != nil {
		return err
	}
	return validateValue(configSchema, doc, "config")
}
