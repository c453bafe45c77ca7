package suite

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AndreyAkinshin/closeness/internal/fixture"
	"github.com/AndreyAkinshin/closeness/internal/schema"
)

// DefaultPattern matches every case file.
const DefaultPattern = "*"

// LoadSuite loads all case files under dir whose base name matches pattern.
// Only files with a fixture extension are considered. Directories whose names
// start with "_" or "." are skipped so they can hold $file data. Cases are
// sorted by path.
func LoadSuite(dir, pattern string) ([]Case, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("suite directory not found: %s", dir)
	}
	if pattern == "" {
		pattern = DefaultPattern
	}

	matches, err := findMatches(dir, pattern)
	if err != nil {
		return nil, err
	}

	cases := make([]Case, 0, len(matches))
	for _, path := range matches {
		c, err := LoadCase(path)
		if err != nil {
			return nil, fmt.Errorf("suite %q: %w (file: %s)", dir, err, path)
		}
		cases = append(cases, *c)
	}
	return cases, nil
}

// LoadCase loads a single case file.
func LoadCase(path string) (*Case, error) {
	format, err := fixture.FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw, err := fixture.Parse(data, format, path)
	if err != nil {
		return nil, err
	}
	if err := schema.ValidateCase(raw); err != nil {
		return nil, err
	}
	doc, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("a case must be a mapping, got %T", raw)
	}

	baseDir := filepath.Dir(path)
	actual, err := fixture.Resolve(doc["actual"], baseDir)
	if err != nil {
		return nil, fmt.Errorf("actual: %w", err)
	}
	expected, err := fixture.Resolve(doc["expected"], baseDir)
	if err != nil {
		return nil, fmt.Errorf("expected: %w", err)
	}

	c := &Case{
		Name:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Path:     path,
		Actual:   actual,
		Expected: expected,
	}
	c.Description, _ = doc["description"].(string)
	if m, ok := doc["mode"].(string); ok {
		c.Mode = Mode(m)
	}

	if raw, ok := doc["options"]; ok {
		opts, err := fixture.Resolve(raw, baseDir)
		if err != nil {
			return nil, fmt.Errorf("options: %w", err)
		}
		c.Options = decodeOptions(asMap(opts))
	}

	if raw, ok := doc["expect"]; ok {
		m := asMap(raw)
		name, _ := m["kind"].(string)
		kind, err := ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("expect: %w", err)
		}
		c.Expect = &Expectation{Kind: kind}
		c.Expect.MessageContains, _ = m["message_contains"].(string)
	}
	return c, nil
}

func decodeOptions(m map[string]any) Options {
	var o Options
	o.RTol = floatField(m, "rtol")
	o.ATol = floatField(m, "atol")
	o.EqualNaN = boolField(m, "equal_nan")
	o.AllowSubclasses = boolField(m, "allow_subclasses")
	if s, ok := m["message"].(string); ok {
		o.Message = &s
	}
	checks := asMap(m["checks"])
	o.CheckDevice = boolField(checks, "device")
	o.CheckDType = boolField(checks, "dtype")
	o.CheckLayout = boolField(checks, "layout")
	o.CheckStride = boolField(checks, "stride")
	o.CheckIsCoalesced = boolField(checks, "is_coalesced")
	return o
}

func asMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, e := range m {
			out[fmt.Sprint(k)] = e
		}
		return out
	}
	return nil
}

func floatField(m map[string]any, key string) *float64 {
	switch v := m[key].(type) {
	case float64:
		return &v
	case int64:
		f := float64(v)
		return &f
	}
	return nil
}

func boolField(m map[string]any, key string) *bool {
	if v, ok := m[key].(bool); ok {
		return &v
	}
	return nil
}

// findMatches walks dir and returns the sorted paths of fixture files whose
// base name matches pattern.
func findMatches(dir, pattern string) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	var matches []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != dir && isDataDir(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if _, err := fixture.FormatOf(path); err != nil {
			return nil
		}
		matched, _ := filepath.Match(pattern, filepath.Base(path))
		if matched {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(matches)
	return matches, nil
}

func isDataDir(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")
}
