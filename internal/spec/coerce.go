package spec

import (
	"math"
	"reflect"

	"github.com/spf13/cast"
)

// Coerce converts a numeric v to the numeric type t when no information is
// lost. Decoded JSON and YAML numbers arrive as float64 or int regardless of
// the declared parameter type.
func Coerce(v any, t reflect.Type) (any, bool) {
	if v == nil || t == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if !isNumeric(rv.Kind()) || !isNumeric(t.Kind()) {
		return nil, false
	}

	switch {
	case isFloat(t.Kind()):
		f, err := cast.ToFloat64E(basic(rv))
		if err != nil {
			return nil, false
		}
		out := reflect.New(t).Elem()
		if out.OverflowFloat(f) {
			return nil, false
		}
		out.SetFloat(f)
		return out.Interface(), true

	case isSigned(t.Kind()):
		if !integral(rv) {
			return nil, false
		}
		if isUnsigned(rv.Kind()) && rv.Uint() > math.MaxInt64 {
			return nil, false
		}
		n, err := cast.ToInt64E(basic(rv))
		if err != nil {
			return nil, false
		}
		out := reflect.New(t).Elem()
		if out.OverflowInt(n) {
			return nil, false
		}
		out.SetInt(n)
		return out.Interface(), true

	default:
		if !integral(rv) || negative(rv) {
			return nil, false
		}
		n, err := cast.ToUint64E(basic(rv))
		if err != nil {
			return nil, false
		}
		out := reflect.New(t).Elem()
		if out.OverflowUint(n) {
			return nil, false
		}
		out.SetUint(n)
		return out.Interface(), true
	}
}

// basic strips named numeric types down to int64, uint64 or float64.
func basic(rv reflect.Value) any {
	switch {
	case isSigned(rv.Kind()):
		return rv.Int()
	case isUnsigned(rv.Kind()):
		return rv.Uint()
	default:
		return rv.Float()
	}
}

func negative(rv reflect.Value) bool {
	switch {
	case isSigned(rv.Kind()):
		return rv.Int() < 0
	case isFloat(rv.Kind()):
		return rv.Float() < 0
	}
	return false
}

func integral(rv reflect.Value) bool {
	if !isFloat(rv.Kind()) {
		return true
	}
	f := rv.Float()
	return !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f) && math.Abs(f) < 1<<63
}

func isNumeric(k reflect.Kind) bool {
	return isSigned(k) || isUnsigned(k) || isFloat(k)
}

func isSigned(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
