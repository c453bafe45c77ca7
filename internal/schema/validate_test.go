package schema

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"empty", `{}`, false},
		{"full", `{"mode": "close", "rtol": 1e-5, "atol": 1e-8, "equal_nan": true,
			"checks": {"device": false, "stride": true},
			"logging": {"level": "debug", "format": "json"},
			"suite": {"directory": "cases", "pattern": "*.yaml"}}`, false},
		{"unknown top-level key", `{"colour": "red"}`, false},
		{"bad mode", `{"mode": "approximately"}`, true},
		{"negative rtol", `{"rtol": -1}`, true},
		{"unknown check", `{"checks": {"shape": true}}`, true},
		{"bad log level", `{"logging": {"level": "trace"}}`, true},
		{"not an object", `[]`, true},
		{"invalid json", `{`, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateConfig([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTensor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		node    any
		wantErr bool
	}{
		{"dense", map[string]any{"dtype": "float32", "shape": []any{int64(2)}, "data": []any{1.0, math.NaN()}}, false},
		{"coo", map[string]any{
			"dtype": "float64", "layout": "sparse_coo", "shape": []any{2, 2},
			"indices": []any{[]any{0, 1}, []any{1, 0}}, "data": []any{1.0, 2.0},
		}, false},
		{"quantized", map[string]any{
			"dtype": "float32", "data": []any{1.0},
			"quantize": map[string]any{"scale": 0.1, "zero_point": 3, "dtype": "quint8"},
		}, false},
		{"yaml map keys", map[any]any{"dtype": "int64", "data": []any{1}}, false},
		{"missing dtype", map[string]any{"data": []any{1}}, true},
		{"unknown field", map[string]any{"dtype": "int64", "values": []any{1}}, true},
		{"negative dim", map[string]any{"dtype": "int64", "shape": []any{-1}}, true},
		{"bad layout", map[string]any{"dtype": "int64", "layout": "blocked"}, true},
		{"zero scale", map[string]any{"dtype": "float32", "quantize": map[string]any{"scale": 0, "dtype": "qint8"}}, true},
		{"transpose arity", map[string]any{"dtype": "float32", "transpose": []any{0}}, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateTensor(tt.node)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateCase(t *testing.T) {
	t.Parallel()

	valid := map[string]any{
		"description": "float drift",
		"actual":      1.0,
		"expected":    1.1,
		"mode":        "close",
		"options":     map[string]any{"rtol": 0.0, "atol": 0.0, "checks": map[string]any{"dtype": false}},
		"expect":      map[string]any{"kind": "value_mismatch", "message_contains": "Scalars are not close!"},
	}
	require.NoError(t, ValidateCase(valid))

	for name, doc := range map[string]map[string]any{
		"missing expected": {"actual": 1},
		"bad kind":         {"actual": 1, "expected": 1, "expect": map[string]any{"kind": "mismatch"}},
		"unknown option":   {"actual": 1, "expected": 1, "options": map[string]any{"tolerance": 1}},
		"null actual ok":   nil,
	} {
		if doc == nil {
			require.NoError(t, ValidateCase(map[string]any{"actual": nil, "expected": nil}), name)
			continue
		}
		assert.Error(t, ValidateCase(doc), name)
	}
}

func TestJSONSafe(t *testing.T) {
	t.Parallel()
	got := jsonSafe(map[any]any{1: []any{math.Inf(-1), float32(0.5)}})
	assert.Equal(t, map[string]any{"1": []any{"-Inf", 0.5}}, got)
}
