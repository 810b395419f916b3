package spec

import (
	"fmt"
	"reflect"
	"sort"

	afberrors "github.com/zjrosen/afb/internal/errors"
)

// Pair is one child of a decomposed manifest.
type Pair struct {
	Spec     *TypeSpec
	Manifest any
}

// Decompose splits a List, Dict or Tuple manifest into child pairs.
// Class manifests are resolved by the caller and are rejected here.
//
// A Dict manifest is either a mapping or a sequence of {"key": k, "value": v}
// entries; children alternate key and value in either case.
func (s *TypeSpec) Decompose(manifest any) ([]Pair, error) {
	switch s.kind {
	case KindList:
		items, ok := sequence(manifest)
		if !ok {
			return nil, formatError(s, manifest, "a sequence")
		}
		out := make([]Pair, len(items))
		for i, item := range items {
			out[i] = Pair{Spec: s.elems[0], Manifest: item}
		}
		return out, nil

	case KindTuple:
		items, ok := sequence(manifest)
		if !ok {
			return nil, formatError(s, manifest, "a sequence")
		}
		if len(items) != len(s.elems) {
			return nil, afberrors.Newf(afberrors.ErrInvalidFormat,
				"tuple %s expects %d items, got %d", s, len(s.elems), len(items))
		}
		out := make([]Pair, len(items))
		for i, item := range items {
			out[i] = Pair{Spec: s.elems[i], Manifest: item}
		}
		return out, nil

	case KindDict:
		return s.decomposeDict(manifest)
	}
	return nil, afberrors.Newf(afberrors.ErrInvalidFormat, "class %s has no children to decompose", s)
}

func (s *TypeSpec) decomposeDict(manifest any) ([]Pair, error) {
	key, val := s.elems[0], s.elems[1]

	if items, ok := sequence(manifest); ok {
		out := make([]Pair, 0, 2*len(items))
		for i, item := range items {
			entry, ok := StringMap(item)
			if !ok || len(entry) != 2 {
				return nil, afberrors.Newf(afberrors.ErrInvalidFormat,
					"dict entry %d must be {\"key\": ..., \"value\": ...}, got %T", i, item)
			}
			k, hasKey := entry["key"]
			v, hasValue := entry["value"]
			if !hasKey || !hasValue {
				return nil, afberrors.Newf(afberrors.ErrInvalidFormat,
					"dict entry %d must be {\"key\": ..., \"value\": ...}", i)
			}
			out = append(out, Pair{Spec: key, Manifest: k}, Pair{Spec: val, Manifest: v})
		}
		return out, nil
	}

	rv := reflect.ValueOf(manifest)
	if rv.Kind() != reflect.Map {
		return nil, formatError(s, manifest, "a mapping or a list of key/value entries")
	}
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
	})
	out := make([]Pair, 0, 2*len(keys))
	for _, k := range keys {
		out = append(out,
			Pair{Spec: key, Manifest: k.Interface()},
			Pair{Spec: val, Manifest: rv.MapIndex(k).Interface()})
	}
	return out, nil
}

// Compose packs realized children into the Go value of s. Class passes its
// single child through, List builds a typed slice, Tuple a []any, and Dict
// zips consecutive key/value children into a typed map.
func (s *TypeSpec) Compose(values []any) (any, error) {
	switch s.kind {
	case KindClass:
		if len(values) != 1 {
			return nil, afberrors.Newf(afberrors.ErrInvalidFormat,
				"class %s composes exactly one value, got %d", s, len(values))
		}
		return values[0], nil

	case KindList:
		elemType := s.goType.Elem()
		out := reflect.MakeSlice(s.goType, len(values), len(values))
		for i, v := range values {
			rv, err := assignable(v, elemType)
			if err != nil {
				return nil, fmt.Errorf("list item %d: %w", i, err)
			}
			out.Index(i).Set(rv)
		}
		return out.Interface(), nil

	case KindTuple:
		return append([]any{}, values...), nil

	case KindDict:
		if len(values)%2 != 0 {
			return nil, afberrors.Newf(afberrors.ErrInvalidFormat,
				"dict %s needs key/value pairs, got %d values", s, len(values))
		}
		out := reflect.MakeMapWithSize(s.goType, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			k, err := assignable(values[i], s.goType.Key())
			if err != nil {
				return nil, fmt.Errorf("dict key: %w", err)
			}
			if !k.Comparable() {
				return nil, afberrors.Newf(afberrors.ErrInvalidFormat,
					"dict key of type %T is not hashable", values[i])
			}
			v, err := assignable(values[i+1], s.goType.Elem())
			if err != nil {
				return nil, fmt.Errorf("dict value %v: %w", values[i], err)
			}
			out.SetMapIndex(k, v)
		}
		return out.Interface(), nil
	}
	return nil, afberrors.Newf(afberrors.ErrInvalidFormat, "unknown type spec kind %s", s.kind)
}

// assignable converts v into a reflect.Value settable into a slot of type t.
func assignable(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if c, ok := Coerce(v, t); ok {
		return reflect.ValueOf(c), nil
	}
	return reflect.Value{}, afberrors.Newf(afberrors.ErrTypeMismatch,
		"cannot use %T as %s", v, ShortName(t))
}

// sequence returns the items of a slice or array manifest. Strings and byte
// slices are not sequences.
func sequence(manifest any) ([]any, bool) {
	switch v := manifest.(type) {
	case []any:
		return v, true
	case string, []byte:
		return nil, false
	}
	rv := reflect.ValueOf(manifest)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func formatError(s *TypeSpec, manifest any, want string) error {
	return afberrors.Newf(afberrors.ErrInvalidFormat,
		"manifest for %s must be %s, got %T", s, want, manifest)
}
