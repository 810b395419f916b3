// Package factory wraps Go funcs as construction units: a callable plus a
// normalized signature, declared defaults and descriptions.
//
// A construction func takes nothing, a map[string]any, or a struct whose
// fields carry afb tags:
//
//	type adderInput struct {
//		Values []float64       `afb:"values"`
//		Scale  float64         `afb:"scale,optional"`
//		Extra  map[string]any  `afb:",remain"`
//	}
//
//	func newAdder(in adderInput) (*Adder, error)
//
// It returns the constructed value and optionally an error.
package factory

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sort"

	afberrors "github.com/zjrosen/afb/internal/errors"
	"github.com/zjrosen/afb/internal/spec"
)

// Factory is an immutable construction unit for one target class.
type Factory struct {
	class    reflect.Type
	call     *callable
	sig      *Signature
	defaults map[string]any
	short    string
	long     string
}

type options struct {
	defaults map[string]any
	required []string
	short    string
	long     string
	err      error
}

// Option configures New.
type Option func(*options)

// WithDefaults declares default inputs layered under call-time inputs.
func WithDefaults(defaults map[string]any) Option {
	return func(o *options) {
		if o.defaults == nil {
			o.defaults = make(map[string]any, len(defaults))
		}
		maps.Copy(o.defaults, defaults)
	}
}

// WithRequired forces declared parameters to be required even when the
// callable treats them as optional.
func WithRequired(names ...string) Option {
	return func(o *options) {
		o.required = append(o.required, names...)
	}
}

// WithDescription sets the short and long descriptions.
func WithDescription(short, long string) Option {
	return func(o *options) {
		o.short, o.long = short, long
	}
}

// WithDoc derives the descriptions from a doc string: the first line is the
// short description and the dedented remainder the long one.
func WithDoc(doc string) Option {
	return func(o *options) {
		o.short, o.long = SplitDoc(doc)
	}
}

// WithDescriptionMap reads descriptions from a {"short": ..., "long": ...}
// mapping as found in config files.
func WithDescriptionMap(m map[string]any) Option {
	return func(o *options) {
		for k, v := range m {
			s, ok := v.(string)
			if !ok {
				o.err = afberrors.Newf(afberrors.ErrInvalidFormat, "description %q must be a string, got %T", k, v)
				return
			}
			switch k {
			case "short":
				o.short = s
			case "long":
				o.long = s
			default:
				o.err = afberrors.Newf(afberrors.ErrInvalidFormat, "unknown description entry %q", k)
				return
			}
		}
	}
}

// New builds a construction unit producing class from fn.
func New(class reflect.Type, fn any, decl spec.Signature, opts ...Option) (*Factory, error) {
	if class == nil {
		return nil, afberrors.New(afberrors.ErrSignature, "target class is nil")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, o.err
	}

	c, err := inspect(fn)
	if err != nil {
		return nil, err
	}
	if c.out.Kind() != reflect.Interface && !c.out.AssignableTo(class) {
		return nil, afberrors.Newf(afberrors.ErrSignature,
			"callable returns %s, which is not a %s", spec.ShortName(c.out), spec.ShortName(class))
	}

	sig, err := newSignature(c, decl, o.required)
	if err != nil {
		return nil, err
	}

	var unknown []string
	for k := range o.defaults {
		if !sig.Has(k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, afberrors.New(afberrors.ErrSignature, "defaults for undeclared parameters", unknown...)
	}

	return &Factory{
		class:    class,
		call:     c,
		sig:      sig,
		defaults: o.defaults,
		short:    o.short,
		long:     o.long,
	}, nil
}

// MustNew is like New but panics on error.
func MustNew(class reflect.Type, fn any, decl spec.Signature, opts ...Option) *Factory {
	f, err := New(class, fn, decl, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

// Class returns the target class.
func (f *Factory) Class() reflect.Type {
	return f.class
}

// Signature returns the normalized signature.
func (f *Factory) Signature() *Signature {
	return f.sig
}

// Defaults returns a copy of the declared defaults.
func (f *Factory) Defaults() map[string]any {
	return maps.Clone(f.defaults)
}

// ShortDescription returns the one-line description.
func (f *Factory) ShortDescription() string {
	return f.short
}

// LongDescription returns the detailed description.
func (f *Factory) LongDescription() string {
	return f.long
}

// MergeInputs layers call-time inputs over the declared defaults and checks
// the result against the signature. Every invalid and every missing name is
// reported.
func (f *Factory) MergeInputs(inputs map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(f.defaults)+len(inputs))
	maps.Copy(out, f.defaults)
	maps.Copy(out, inputs)

	var invalid []string
	for k := range out {
		if !f.sig.Has(k) {
			invalid = append(invalid, k)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return nil, afberrors.New(afberrors.ErrArgument, "invalid arguments", invalid...)
	}

	var missing []string
	for _, k := range f.sig.Required() {
		if _, ok := out[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, afberrors.New(afberrors.ErrArgument, "missing required arguments", missing...)
	}
	return out, nil
}

// Invoke calls the wrapped func with realized arguments. The result is nil or
// a value of the target class.
func (f *Factory) Invoke(args map[string]any) (any, error) {
	in, err := f.arguments(args)
	if err != nil {
		return nil, err
	}

	out := f.call.fn.Call(in)
	if f.call.hasError && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}

	result := out[0]
	if isNil(result) {
		return nil, nil
	}
	value := result.Interface()
	if got := reflect.TypeOf(value); !got.AssignableTo(f.class) {
		return nil, afberrors.Newf(afberrors.ErrTypeMismatch,
			"expected %s, got %s", spec.ShortName(f.class), spec.ShortName(got))
	}
	return value, nil
}

func (f *Factory) arguments(args map[string]any) ([]reflect.Value, error) {
	switch f.call.kind {
	case inputMap:
		return []reflect.Value{reflect.ValueOf(maps.Clone(args))}, nil
	case inputStruct:
	default:
		return nil, nil
	}

	sv := reflect.New(f.call.in).Elem()
	var extra map[string]any
	names := slices.Sorted(maps.Keys(args))
	for _, name := range names {
		v := args[name]
		i, ok := f.call.byName[name]
		if !ok {
			if extra == nil {
				extra = make(map[string]any)
			}
			extra[name] = v
			continue
		}
		fv := sv.FieldByIndex(f.call.fields[i].index)
		if err := assign(fv, v); err != nil {
			return nil, afberrors.Wrap(afberrors.ErrArgument, err, fmt.Sprintf("argument %q", name))
		}
	}
	if extra != nil && f.call.sink != nil {
		sv.FieldByIndex(f.call.sink).Set(reflect.ValueOf(extra))
	}

	if f.call.ptr {
		return []reflect.Value{sv.Addr()}, nil
	}
	return []reflect.Value{sv}, nil
}

func assign(dst reflect.Value, v any) error {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(dst.Type()) {
		dst.Set(rv)
		return nil
	}
	if c, ok := spec.Coerce(v, dst.Type()); ok {
		dst.Set(reflect.ValueOf(c))
		return nil
	}
	return afberrors.Newf(afberrors.ErrTypeMismatch, "cannot use %T as %s", v, spec.ShortName(dst.Type()))
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
