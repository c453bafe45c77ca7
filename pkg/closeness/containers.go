package closeness

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"

	"github.com/AndreyAkinshin/closeness/pkg/tensor"
)

// Sequence is an indexable container walked element by element.
type Sequence interface {
	Len() int
	Index(i int) any
}

// Mapping is a keyed container walked key by key.
type Mapping interface {
	// Keys returns the keys in a deterministic order.
	Keys() []any
	Get(key any) any
}

// SequenceKind recognizes values that are walked as sequences.
type SequenceKind struct {
	Name  string
	Match func(v any) (Sequence, bool)
}

// MappingKind recognizes values that are walked as mappings.
type MappingKind struct {
	Name  string
	Match func(v any) (Mapping, bool)
}

// SliceSequence matches Go slices and arrays, except strings and those the
// tensor package converts to a tensor. A []float64 is one array-like leaf,
// while a []any is walked element by element.
var SliceSequence = SequenceKind{Name: "slice", Match: matchSlice}

// MapMapping matches any Go map.
var MapMapping = MappingKind{Name: "map", Match: matchMap}

// StructMapping matches structs, and pointers to them, with exported fields.
// Field names are the keys. Tensor-likes and structs without exported fields
// are left to the leaf comparators.
var StructMapping = MappingKind{Name: "struct", Match: matchStruct}

type reflectSequence struct {
	v reflect.Value
}

func (s reflectSequence) Len() int { return s.v.Len() }

func (s reflectSequence) Index(i int) any { return s.v.Index(i).Interface() }

func matchSlice(v any) (Sequence, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
	default:
		return nil, false
	}
	if tensor.IsConvertible(rv.Type()) {
		return nil, false
	}
	return reflectSequence{v: rv}, true
}

type reflectMapping struct {
	v    reflect.Value
	keys []any
}

func (m reflectMapping) Keys() []any { return m.keys }

func (m reflectMapping) Get(key any) any {
	return m.v.MapIndex(reflect.ValueOf(key)).Interface()
}

func matchMap(v any) (Mapping, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, false
	}
	keys := make([]any, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, k.Interface())
	}
	sortKeys(keys)
	return reflectMapping{v: rv, keys: keys}, true
}

type structMapping struct {
	v      reflect.Value
	keys   []any
	fields map[string]int
}

func (m structMapping) Keys() []any { return m.keys }

func (m structMapping) Get(key any) any {
	return m.v.Field(m.fields[key.(string)]).Interface()
}

func matchStruct(v any) (Mapping, bool) {
	if v == nil {
		return nil, false
	}
	if _, ok := v.(tensor.Like); ok {
		return nil, false
	}
	if _, ok := v.(*tensor.Tensor); ok {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}
	m := structMapping{v: rv, fields: make(map[string]int)}
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Type().Field(i)
		if !f.IsExported() {
			continue
		}
		m.keys = append(m.keys, f.Name)
		m.fields[f.Name] = i
	}
	if len(m.keys) == 0 {
		return nil, false
	}
	sortKeys(m.keys)
	return m, true
}

// sortKeys orders keys natively when they are all strings, all integers or
// all floats, and by type and value otherwise.
func sortKeys(keys []any) {
	switch {
	case allKeys(keys, reflect.String):
		slices.SortFunc(keys, func(a, b any) int {
			return cmp.Compare(reflect.ValueOf(a).String(), reflect.ValueOf(b).String())
		})
	case allKeys(keys, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64):
		slices.SortFunc(keys, func(a, b any) int {
			return cmp.Compare(reflect.ValueOf(a).Int(), reflect.ValueOf(b).Int())
		})
	case allKeys(keys, reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr):
		slices.SortFunc(keys, func(a, b any) int {
			return cmp.Compare(reflect.ValueOf(a).Uint(), reflect.ValueOf(b).Uint())
		})
	case allKeys(keys, reflect.Float32, reflect.Float64):
		slices.SortFunc(keys, func(a, b any) int {
			return cmp.Compare(reflect.ValueOf(a).Float(), reflect.ValueOf(b).Float())
		})
	default:
		slices.SortFunc(keys, func(a, b any) int {
			return cmp.Compare(fmt.Sprintf("%T:%v", a, a), fmt.Sprintf("%T:%v", b, b))
		})
	}
}

func allKeys(keys []any, kinds ...reflect.Kind) bool {
	for _, k := range keys {
		if k == nil || !slices.Contains(kinds, reflect.TypeOf(k).Kind()) {
			return false
		}
	}
	return true
}

func asSequence(v any, kinds []SequenceKind) (Sequence, bool) {
	if _, ok := v.(string); ok {
		return nil, false
	}
	for _, k := range kinds {
		if s, ok := k.Match(v); ok {
			return s, true
		}
	}
	return nil, false
}

func asMapping(v any, kinds []MappingKind) (Mapping, bool) {
	for _, k := range kinds {
		if m, ok := k.Match(v); ok {
			return m, true
		}
	}
	return nil, false
}
