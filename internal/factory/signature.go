package factory

import (
	"fmt"
	"reflect"
	"slices"
	"sort"

	afberrors "github.com/zjrosen/afb/internal/errors"
	"github.com/zjrosen/afb/internal/spec"
)

// Signature is the normalized parameter list of a construction unit.
// Required names come first, then optional ones.
type Signature struct {
	names    []string
	params   map[string]*spec.ParameterSpec
	required map[string]bool
}

// Names returns every parameter name in order.
func (s *Signature) Names() []string {
	return slices.Clone(s.names)
}

// Param returns the spec of a parameter.
func (s *Signature) Param(name string) (*spec.ParameterSpec, bool) {
	p, ok := s.params[name]
	return p, ok
}

// Has reports whether name is a declared parameter.
func (s *Signature) Has(name string) bool {
	_, ok := s.params[name]
	return ok
}

// IsRequired reports whether name must be supplied at call time.
func (s *Signature) IsRequired(name string) bool {
	return s.required[name]
}

// Required returns the required parameter names in order.
func (s *Signature) Required() []string {
	out := make([]string, 0, len(s.required))
	for _, n := range s.names {
		if s.required[n] {
			out = append(out, n)
		}
	}
	return out
}

// Optional returns the optional parameter names in order.
func (s *Signature) Optional() []string {
	out := make([]string, 0, len(s.names)-len(s.required))
	for _, n := range s.names {
		if !s.required[n] {
			out = append(out, n)
		}
	}
	return out
}

// Len returns the number of parameters.
func (s *Signature) Len() int {
	return len(s.names)
}

// newSignature reconciles a declared signature with the callable's real
// parameters. Every mismatch is collected before failing.
func newSignature(c *callable, decl spec.Signature, forced []string) (*Signature, error) {
	parsed := make(map[string]*spec.ParameterSpec, len(decl))
	for name, raw := range decl {
		p, err := spec.ParseParam(raw)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		parsed[name] = p
	}

	force := make(map[string]bool, len(forced))
	var problems []string
	for _, name := range forced {
		if _, ok := parsed[name]; !ok {
			problems = append(problems, "cannot require undeclared "+name)
			continue
		}
		force[name] = true
	}

	var required, optional []string
	used := make(map[string]bool, len(parsed))
	for _, f := range c.fields {
		p, ok := parsed[f.name]
		if !ok {
			if !f.optional {
				problems = append(problems, "missing "+f.name)
			}
			continue
		}
		used[f.name] = true
		if !fits(p.Type.GoType(), f.typ) {
			problems = append(problems, fmt.Sprintf("type of %s: declared %s, field is %s",
				f.name, p.Type, spec.ShortName(f.typ)))
		}
		if !f.optional || p.Required || force[f.name] {
			required = append(required, f.name)
		} else {
			optional = append(optional, f.name)
		}
	}

	rest := make([]string, 0, len(parsed)-len(used))
	for name := range parsed {
		if !used[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		if !c.hasSink {
			problems = append(problems, "unknown "+name)
			continue
		}
		if parsed[name].Required || force[name] {
			required = append(required, name)
		} else {
			optional = append(optional, name)
		}
	}

	if len(problems) > 0 {
		return nil, afberrors.New(afberrors.ErrSignature,
			"declared signature does not match the callable", problems...)
	}

	s := &Signature{
		names:    append(required, optional...),
		params:   parsed,
		required: make(map[string]bool, len(required)),
	}
	for _, n := range required {
		s.required[n] = true
	}
	return s, nil
}

// fits reports whether a realized value of type declared can be stored in a
// field of type field. Interface-typed declarations are checked per call.
func fits(declared, field reflect.Type) bool {
	if declared.AssignableTo(field) || declared.Kind() == reflect.Interface {
		return true
	}
	_, numeric := spec.Coerce(reflect.Zero(declared).Interface(), field)
	return numeric
}
