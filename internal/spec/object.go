package spec

import (
	"reflect"

	afberrors "github.com/zjrosen/afb/internal/errors"
)

// ObjectSpec references a construction unit by key together with the
// manifests of its inputs. An empty Key selects the registry default.
type ObjectSpec struct {
	Key    string
	Inputs map[string]any
}

// NewObjectSpec builds an object spec directly, bypassing wire parsing.
func NewObjectSpec(key string, inputs map[string]any) *ObjectSpec {
	return &ObjectSpec{Key: key, Inputs: inputs}
}

// IsObjectSpec reports whether v has one of the two object-spec wire shapes:
// a single-entry mapping, or a mapping with exactly the keys "key" and "inputs".
func IsObjectSpec(v any) bool {
	if _, ok := v.(*ObjectSpec); ok {
		return true
	}
	m, ok := StringMap(v)
	if !ok {
		return false
	}
	switch len(m) {
	case 1:
		return true
	case 2:
		_, hasKey := m["key"]
		_, hasInputs := m["inputs"]
		return hasKey && hasInputs
	}
	return false
}

// ParseObject reads an object spec from its wire shape.
func ParseObject(v any) (*ObjectSpec, error) {
	if o, ok := v.(*ObjectSpec); ok {
		return o, nil
	}
	m, ok := StringMap(v)
	if !ok {
		return nil, afberrors.Newf(afberrors.ErrInvalidFormat,
			"object spec must be a mapping, got %T", v)
	}

	var (
		key string
		raw any
	)
	switch {
	case len(m) == 1:
		for k, in := range m {
			key, raw = k, in
		}
	case IsObjectSpec(m):
		switch k := m["key"].(type) {
		case string:
			key = k
		case nil:
		default:
			return nil, afberrors.Newf(afberrors.ErrInvalidFormat,
				"object spec key must be a string, got %T", k)
		}
		raw = m["inputs"]
	default:
		return nil, afberrors.New(afberrors.ErrInvalidFormat,
			`object spec must be {"<key>": {...}} or {"key": ..., "inputs": {...}}`)
	}

	if raw == nil {
		return &ObjectSpec{Key: key}, nil
	}
	inputs, ok := StringMap(raw)
	if !ok {
		return nil, afberrors.Newf(afberrors.ErrInvalidFormat,
			"inputs of %q must be a mapping, got %T", key, raw)
	}
	return &ObjectSpec{Key: key, Inputs: inputs}, nil
}

// Direct reports whether manifest is used as is for a Class(t) parameter and
// returns the value to use. nil is always direct. Numeric values are coerced
// when lossless.
//
// When t is a map type a mapping manifest is ambiguous: it is read as an
// object spec only if it has an object-spec shape and has reports a unit under
// the extracted key. has may be nil, in which case mappings are literal.
func Direct(manifest any, t reflect.Type, has func(key string) bool) (any, bool) {
	if manifest == nil {
		return nil, true
	}
	if _, ok := manifest.(*ObjectSpec); ok {
		return nil, false
	}
	if reflect.TypeOf(manifest).AssignableTo(t) {
		if t.Kind() == reflect.Map && has != nil && IsObjectSpec(manifest) {
			if o, err := ParseObject(manifest); err == nil && has(o.Key) {
				return nil, false
			}
		}
		return manifest, true
	}
	if c, ok := Coerce(manifest, t); ok {
		return c, true
	}
	return nil, false
}

// StringMap returns v as a map[string]any when v is a mapping whose keys are
// all strings. Decoders commonly produce map[any]any or named map types.
func StringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			s, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[s] = val
		}
		return out, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}
