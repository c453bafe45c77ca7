// Package fixture decodes comparison inputs from JSON, YAML and HCL documents.
//
// Besides plain values, a document may contain special nodes:
//
//	{"$file": "other.json"}      the decoded contents of a file next to the document
//	{"$tensor": {...}}           a tensor, see tensor.schema.json
//	{"$decimal": "0.1"}          an exact decimal.Decimal
//
// The strings "NaN", "Infinity", "+Infinity" and "-Infinity" decode as floats.
// JSON integers decode as int64, every other number as float64.
package fixture

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Format is the syntax of a fixture document.
type Format int

const (
	JSON Format = iota
	YAML
	HCL
)

func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case YAML:
		return "yaml"
	case HCL:
		return "hcl"
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	case ".hcl":
		return HCL, nil
	}
	return 0, fmt.Errorf("unsupported fixture extension %q (want .json, .yaml, .yml or .hcl)", filepath.Ext(path))
}

// Load reads and decodes the document at path. $file references resolve
// relative to the document's directory.
func Load(path string) (any, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	v, err := Decode(data, format, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// Decode parses data and resolves its special nodes. name is used for
// diagnostics and its directory anchors $file references.
func Decode(data []byte, format Format, name string) (any, error) {
	raw, err := Parse(data, format, name)
	if err != nil {
		return nil, err
	}
	return Resolve(raw, filepath.Dir(name))
}

// Parse decodes data into plain values without resolving special nodes.
func Parse(data []byte, format Format, name string) (any, error) {
	switch format {
	case JSON:
		return parseJSON(data)
	case YAML:
		return parseYAML(data)
	case HCL:
		return parseHCL(data, name)
	}
	return nil, fmt.Errorf("unsupported format %s", format)
}

func parseJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid JSON: trailing data after document")
	}
	return v, nil
}

func parseYAML(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return v, nil
}

// Resolve converts the numbers of a parsed document and expands its special
// nodes. baseDir anchors $file references.
func Resolve(value any, baseDir string) (any, error) {
	switch v := value.(type) {
	case json.Number:
		return jsonNumber(v), nil
	case int:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return float64(v), nil
		}
		return int64(v), nil
	case string:
		if f, ok := specialFloat(v); ok {
			return f, nil
		}
		return v, nil
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			r, err := Resolve(e, baseDir)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = r
		}
		return out, nil
	case map[string]any:
		if key, body, ok := specialNode(v); ok {
			return resolveSpecial(key, body, baseDir)
		}
		out := make(map[string]any, len(v))
		for k, e := range v {
			r, err := Resolve(e, baseDir)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			out[k] = r
		}
		return out, nil
	case map[any]any:
		out := make(map[any]any, len(v))
		for k, e := range v {
			rk, err := Resolve(k, baseDir)
			if err != nil {
				return nil, err
			}
			r, err := Resolve(e, baseDir)
			if err != nil {
				return nil, fmt.Errorf("[%v]: %w", k, err)
			}
			out[rk] = r
		}
		return out, nil
	}
	return value, nil
}

func jsonNumber(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	// Float64 saturates to an infinity on overflow.
	f, _ := n.Float64()
	return f
}

// specialFloat parses the non-finite float spellings used in fixtures.
func specialFloat(s string) (float64, bool) {
	switch s {
	case "NaN":
		return math.NaN(), true
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	return 0, false
}

// specialNode reports whether m is a single-key node such as {"$file": ...}.
func specialNode(m map[string]any) (string, any, bool) {
	if len(m) != 1 {
		return "", nil, false
	}
	for k, v := range m {
		switch k {
		case "$file", "$tensor", "$decimal":
			return k, v, true
		}
	}
	return "", nil, false
}

func resolveSpecial(key string, body any, baseDir string) (any, error) {
	switch key {
	case "$file":
		ref, ok := body.(string)
		if !ok {
			return nil, fmt.Errorf("$file must be a string, got %T", body)
		}
		return loadFileRef(ref, baseDir)
	case "$decimal":
		return parseDecimal(body)
	case "$tensor":
		return buildTensor(body, baseDir)
	}
	return nil, fmt.Errorf("unknown special node %q", key)
}

func parseDecimal(body any) (decimal.Decimal, error) {
	switch v := body.(type) {
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("$decimal: %w", err)
		}
		return d, nil
	case json.Number:
		return parseDecimal(v.String())
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	}
	return decimal.Decimal{}, fmt.Errorf("$decimal must be a string or number, got %T", body)
}

// loadFileRef loads a document referenced by $file. The reference must stay
// inside baseDir. Files with a known extension are decoded, anything else is
// returned as a string.
func loadFileRef(ref, baseDir string) (any, error) {
	if strings.Contains(ref, "..") {
		return nil, fmt.Errorf("$file path contains \"..\": %s", ref)
	}

	path := filepath.Join(baseDir, ref)

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if absPath != absBase && !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return nil, fmt.Errorf("$file path escapes fixture directory: %s", ref)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("$file %q: %w", ref, err)
	}

	format, err := FormatOf(path)
	if err != nil {
		return string(data), nil
	}
	v, err := Decode(data, format, path)
	if err != nil {
		return nil, fmt.Errorf("$file %q: %w", ref, err)
	}
	return v, nil
}
