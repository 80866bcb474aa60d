// Package params loads the parameter set injected into every notebook.
package params

import (
	"fmt"
	"reflect"
	"sort"
)

// Set is an immutable mapping of parameter names to values.
//
// The zero value is an empty set. Values are deep-copied when the set is
// built and again when they are handed out, so a stage cannot mutate the
// parameters seen by later stages.
type Set struct {
	m map[string]any
}

// Empty returns a set without parameters.
func Empty() Set { return Set{} }

// FromMap builds a set from m. Nested maps and slices are copied.
func FromMap(m map[string]any) Set {
	if len(m) == 0 {
		return Set{}
	}
	return Set{m: copyMap(m)}
}

// Len returns the number of top-level parameters.
func (s Set) Len() int { return len(s.m) }

// Keys returns the parameter names in sorted order.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s.m))
	for k := range s.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns a copy of the value stored under key.
func (s Set) Get(key string) (any, bool) {
	v, ok := s.m[key]
	if !ok {
		return nil, false
	}
	return copyValue(v), true
}

// Map returns a copy of the whole set. It is never nil.
func (s Set) Map() map[string]any {
	if len(s.m) == 0 {
		return map[string]any{}
	}
	return copyMap(s.m)
}

// Equal reports whether both sets hold the same values.
func (s Set) Equal(o Set) bool {
	if s.Len() != o.Len() {
		return false
	}
	if s.Len() == 0 {
		return true
	}
	return reflect.DeepEqual(s.m, o.m)
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return copyMap(x)
	case map[any]any:
		return stringKeys(x)
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = copyValue(x[i])
		}
		return out
	case []map[string]any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = copyMap(x[i])
		}
		return out
	default:
		return v
	}
}

// stringKeys converts a mapping with scalar keys, such as {0: 1, 1: 5},
// into a string-keyed one. Keys are rendered with fmt.Sprint.
func stringKeys(m map[any]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[fmt.Sprint(k)] = copyValue(v)
	}
	return out
}
