package spec

import (
	"fmt"

	afberrors "github.com/zjrosen/afb/internal/errors"
)

// Param is the long form of a signature entry.
type Param struct {
	Type        any
	Description string
	Required    bool
}

// ParameterSpec is a parsed signature entry.
type ParameterSpec struct {
	Type        *TypeSpec
	Description string
	Required    bool
}

// Signature declares the parameters of a construction unit: name to a raw
// type descriptor, a Param, or a map with "type", "description" and
// "required" entries.
type Signature map[string]any

// ParseParam reads one signature entry.
func ParseParam(raw any) (*ParameterSpec, error) {
	switch v := raw.(type) {
	case *ParameterSpec:
		if v == nil || v.Type == nil {
			return nil, afberrors.New(afberrors.ErrSignature, "parameter spec has no type")
		}
		return v, nil
	case Param:
		return parseParam(v)
	case *Param:
		if v == nil {
			return nil, afberrors.New(afberrors.ErrSignature, "parameter spec is nil")
		}
		return parseParam(*v)
	case map[string]any:
		return parseParamMap(v)
	}
	t, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return &ParameterSpec{Type: t}, nil
}

func parseParam(p Param) (*ParameterSpec, error) {
	t, err := Parse(p.Type)
	if err != nil {
		return nil, err
	}
	return &ParameterSpec{Type: t, Description: p.Description, Required: p.Required}, nil
}

func parseParamMap(m map[string]any) (*ParameterSpec, error) {
	var p Param
	typ, ok := m["type"]
	if !ok {
		return nil, afberrors.New(afberrors.ErrSignature, `parameter spec needs a "type" entry`)
	}
	p.Type = typ

	for k, v := range m {
		switch k {
		case "type":
		case "description":
			s, ok := v.(string)
			if !ok {
				return nil, afberrors.Newf(afberrors.ErrInvalidFormat,
					"parameter description must be a string, got %T", v)
			}
			p.Description = s
		case "required":
			b, ok := v.(bool)
			if !ok {
				return nil, afberrors.Newf(afberrors.ErrInvalidFormat,
					"parameter required flag must be a bool, got %T", v)
			}
			p.Required = b
		default:
			return nil, afberrors.New(afberrors.ErrInvalidFormat,
				fmt.Sprintf("unknown parameter spec entry %q", k))
		}
	}
	return parseParam(p)
}
