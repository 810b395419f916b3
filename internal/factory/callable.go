package factory

import (
	"reflect"
	"strings"

	afberrors "github.com/zjrosen/afb/internal/errors"
)

// TagName is the struct tag read from input struct fields.
const TagName = "afb"

var (
	errorType = reflect.TypeFor[error]()
	sinkType  = reflect.TypeFor[map[string]any]()
)

type inputKind int

const (
	inputNone inputKind = iota
	inputStruct
	inputMap
)

type field struct {
	name     string
	index    []int
	typ      reflect.Type
	optional bool
}

// callable is the introspected parameter list of a construction func.
type callable struct {
	fn       reflect.Value
	kind     inputKind
	in       reflect.Type
	ptr      bool
	fields   []field
	byName   map[string]int
	sink     []int
	hasSink  bool
	hasError bool
	out      reflect.Type
}

func inspect(fn any) (*callable, error) {
	if fn == nil {
		return nil, afberrors.New(afberrors.ErrSignature, "callable is nil")
	}
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, afberrors.Newf(afberrors.ErrSignature, "callable must be a func, got %T", fn)
	}
	if v.IsNil() {
		return nil, afberrors.New(afberrors.ErrSignature, "callable is nil")
	}
	if t.IsVariadic() {
		return nil, afberrors.Newf(afberrors.ErrSignature, "variadic callables are not supported: %s", t)
	}

	c := &callable{fn: v, byName: make(map[string]int)}

	switch t.NumOut() {
	case 1:
	case 2:
		if t.Out(1) != errorType {
			return nil, afberrors.Newf(afberrors.ErrSignature, "second result of %s must be error", t)
		}
		c.hasError = true
	default:
		return nil, afberrors.Newf(afberrors.ErrSignature, "callable must return a value and optionally an error: %s", t)
	}
	c.out = t.Out(0)

	switch t.NumIn() {
	case 0:
		c.kind = inputNone
	case 1:
		in := t.In(0)
		switch {
		case in == sinkType:
			c.kind = inputMap
			c.hasSink = true
		case in.Kind() == reflect.Struct:
			c.kind = inputStruct
			c.in = in
		case in.Kind() == reflect.Pointer && in.Elem().Kind() == reflect.Struct:
			c.kind = inputStruct
			c.in = in.Elem()
			c.ptr = true
		default:
			return nil, afberrors.Newf(afberrors.ErrSignature,
				"unsupported parameter kind %s: want a struct or map[string]any", in)
		}
	default:
		return nil, afberrors.Newf(afberrors.ErrSignature,
			"callable must take at most one parameter: %s", t)
	}

	if c.kind == inputStruct {
		if err := c.scan(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// scan reads the afb tags of the input struct.
func (c *callable) scan() error {
	for i := 0; i < c.in.NumField(); i++ {
		f := c.in.Field(i)
		tag, ok := f.Tag.Lookup(TagName)
		if !ok || tag == "-" || !f.IsExported() {
			continue
		}

		name, opts, _ := strings.Cut(tag, ",")
		switch {
		case opts == "remain":
			if f.Type != sinkType {
				return afberrors.Newf(afberrors.ErrSignature,
					"remain field %s must be map[string]any, got %s", f.Name, f.Type)
			}
			if c.hasSink {
				return afberrors.Newf(afberrors.ErrSignature, "%s has more than one remain field", c.in)
			}
			c.sink = f.Index
			c.hasSink = true
			continue
		case opts != "" && opts != "optional":
			return afberrors.Newf(afberrors.ErrSignature, "unknown tag option %q on field %s", opts, f.Name)
		}

		if name == "" {
			name = f.Name
		}
		if _, dup := c.byName[name]; dup {
			return afberrors.Newf(afberrors.ErrSignature, "parameter %q is declared twice in %s", name, c.in)
		}
		c.byName[name] = len(c.fields)
		c.fields = append(c.fields, field{
			name:     name,
			index:    f.Index,
			typ:      f.Type,
			optional: opts == "optional",
		})
	}
	return nil
}
