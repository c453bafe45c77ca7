package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// detectUnknownFields compares the top-level keys of a decoded document with
// the known fields of Config. Nested sections are closed by the schema.
func detectUnknownFields(raw any) []string {
	doc, ok := raw.(map[string]any)
	if !ok {
		return nil
	}

	known := getYAMLFields(reflect.TypeOf(Config{}))
	var warnings []string
	for key := range doc {
		if !known[key] {
			warnings = append(warnings, fmt.Sprintf("unknown field %q at root level (ignored)", key))
		}
	}
	sort.Strings(warnings)
	return warnings
}

// getYAMLFields returns the set of yaml field names of a struct type.
func getYAMLFields(t reflect.Type) map[string]bool {
	fields := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("yaml")
		if tag == "" || tag == "-" {
			continue
		}
		if name := strings.Split(tag, ",")[0]; name != "" {
			fields[name] = true
		}
	}
	return fields
}
