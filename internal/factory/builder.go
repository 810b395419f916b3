package factory

import (
	"reflect"

	"github.com/zjrosen/afb/internal/spec"
)

// Builder provides a fluent API for declaring a construction unit.
type Builder struct {
	class    reflect.Type
	fn       any
	sig      spec.Signature
	defaults map[string]any
	required []string
	opts     []Option
}

// NewBuilder creates a builder for units producing class.
func NewBuilder(class reflect.Type) *Builder {
	return &Builder{
		class: class,
		sig:   make(spec.Signature),
	}
}

// Func sets the construction func.
func (b *Builder) Func(fn any) *Builder {
	b.fn = fn
	return b
}

// Param declares a parameter with a raw type descriptor.
func (b *Builder) Param(name string, typ any, description string) *Builder {
	b.sig[name] = spec.Param{Type: typ, Description: description}
	return b
}

// RequiredParam declares a parameter that must be supplied at call time.
func (b *Builder) RequiredParam(name string, typ any, description string) *Builder {
	b.sig[name] = spec.Param{Type: typ, Description: description, Required: true}
	return b
}

// Default sets the default input of a declared parameter.
func (b *Builder) Default(name string, value any) *Builder {
	if b.defaults == nil {
		b.defaults = make(map[string]any)
	}
	b.defaults[name] = value
	return b
}

// Require forces declared parameters to be required.
func (b *Builder) Require(names ...string) *Builder {
	b.required = append(b.required, names...)
	return b
}

// Description sets the short and long descriptions.
func (b *Builder) Description(short, long string) *Builder {
	b.opts = append(b.opts, WithDescription(short, long))
	return b
}

// Doc sets the descriptions from a doc string.
func (b *Builder) Doc(doc string) *Builder {
	b.opts = append(b.opts, WithDoc(doc))
	return b
}

// Build validates the declaration and returns the unit.
func (b *Builder) Build() (*Factory, error) {
	opts := append([]Option{}, b.opts...)
	if b.defaults != nil {
		opts = append(opts, WithDefaults(b.defaults))
	}
	if len(b.required) > 0 {
		opts = append(opts, WithRequired(b.required...))
	}
	return New(b.class, b.fn, b.sig, opts...)
}
