package manifest

import (
	"encoding/json"
	"reflect"
)

// normalize converts decoder-specific containers and numbers into
// map[string]any, []any, int64 and float64. Mappings with a key that is not
// a string become map[any]any with their keys normalized in place.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		return normalizeMap(reflect.ValueOf(t))
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case int:
		return int64(t)
	case uint64:
		if t <= 1<<63-1 {
			return int64(t)
		}
		return t
	case float32:
		return float64(t)
	case nil, string, bool, int64, float64:
		return t
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		return normalizeMap(rv)
	}
	return v
}

func normalizeMap(rv reflect.Value) any {
	if rv.Type().Key().Kind() == reflect.String {
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = normalize(iter.Value().Interface())
		}
		return out
	}

	out := make(map[any]any, rv.Len())
	allStrings := true
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key().Interface()
		if nk := normalize(k); nk == nil || reflect.TypeOf(nk).Comparable() {
			k = nk
		}
		if _, ok := k.(string); !ok {
			allStrings = false
		}
		out[k] = normalize(iter.Value().Interface())
	}
	if !allStrings {
		return out
	}
	strs := make(map[string]any, len(out))
	for k, val := range out {
		strs[k.(string)] = val
	}
	return strs
}
