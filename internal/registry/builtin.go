package registry

import (
	"reflect"

	"github.com/spf13/cast"

	afberrors "github.com/zjrosen/afb/internal/errors"
	"github.com/zjrosen/afb/internal/factory"
	"github.com/zjrosen/afb/internal/manifest"
	"github.com/zjrosen/afb/internal/spec"
)

// Builtin unit keys, without ReservedPrefix.
const (
	BuiltinFromConfig = "from_config"
	BuiltinLoadConfig = "load_config"
	BuiltinDirect     = "direct"
	BuiltinCast       = "cast"
)

var (
	stringType = reflect.TypeFor[string]()
	anyType    = reflect.TypeFor[any]()
	dictType   = reflect.TypeFor[map[string]any]()
)

func installBuiltins(r *Registry) {
	r.registerBuiltin(BuiltinFromConfig, factory.MustNew(r.class, fromConfig(r), spec.Signature{
		"config": spec.Param{
			Type:        stringType,
			Description: "Path of a YAML, JSON, TOML, HCL, CUE or CBOR file holding a single object spec.",
			Required:    true,
		},
	}, factory.WithDoc(`Builds the object described by a config file.

		The file holds one object spec, {"<key>": {<inputs>}}, that is
		realized with this registry's units.`)))

	switch {
	case r.class == dictType:
		r.registerBuiltin(BuiltinDirect, factory.MustNew(r.class, direct, spec.Signature{
			"value": spec.Param{Type: anyType, Description: "Mapping returned as is.", Required: true},
		}, factory.WithDoc(`Returns the given mapping unchanged.

		Use it for literal mappings that would otherwise be read as an
		object spec.`)))

		r.registerBuiltin(BuiltinLoadConfig, factory.MustNew(r.class, loadConfig, spec.Signature{
			"config": spec.Param{Type: stringType, Description: "Path of the config file.", Required: true},
		}, factory.WithDescription("Loads a config file as a mapping.", "")))

	case isScalar(r.class):
		r.registerBuiltin(BuiltinCast, factory.MustNew(r.class, castTo(r.class), spec.Signature{
			"value": spec.Param{Type: anyType, Description: "Value to convert.", Required: true},
		}, factory.WithDescription("Converts a value to "+r.class.String()+".",
			"Strings, numbers and booleans are converted the way spf13/cast does.")))
	}
}

func fromConfig(r *Registry) func(map[string]any) (any, error) {
	return func(args map[string]any) (any, error) {
		path, _ := args["config"].(string)
		m, err := manifest.LoadObject(path)
		if err != nil {
			return nil, err
		}
		return realize(r, spec.Class(r.class), m)
	}
}

type directInput struct {
	Value any `afb:"value"`
}

func direct(in directInput) (map[string]any, error) {
	if in.Value == nil {
		return nil, nil
	}
	m, ok := spec.StringMap(in.Value)
	if !ok {
		return nil, afberrors.Newf(afberrors.ErrTypeMismatch, "value must be a mapping, got %T", in.Value)
	}
	return m, nil
}

type configInput struct {
	Config string `afb:"config"`
}

func loadConfig(in configInput) (map[string]any, error) {
	return manifest.Load(in.Config)
}

type castInput struct {
	Value any `afb:"value"`
}

func castTo(t reflect.Type) func(castInput) (any, error) {
	return func(in castInput) (any, error) {
		out := reflect.New(t).Elem()
		var err error

		switch k := t.Kind(); {
		case k == reflect.Bool:
			var b bool
			if b, err = cast.ToBoolE(in.Value); err == nil {
				out.SetBool(b)
			}
		case k == reflect.String:
			var s string
			if s, err = cast.ToStringE(in.Value); err == nil {
				out.SetString(s)
			}
		case k >= reflect.Int && k <= reflect.Int64:
			var n int64
			if n, err = cast.ToInt64E(in.Value); err == nil {
				if out.OverflowInt(n) {
					return nil, afberrors.Newf(afberrors.ErrArgument, "%d overflows %s", n, t)
				}
				out.SetInt(n)
			}
		case k >= reflect.Uint && k <= reflect.Uintptr:
			var n uint64
			if n, err = cast.ToUint64E(in.Value); err == nil {
				if out.OverflowUint(n) {
					return nil, afberrors.Newf(afberrors.ErrArgument, "%d overflows %s", n, t)
				}
				out.SetUint(n)
			}
		default:
			var f float64
			if f, err = cast.ToFloat64E(in.Value); err == nil {
				if out.OverflowFloat(f) {
					return nil, afberrors.Newf(afberrors.ErrArgument, "%g overflows %s", f, t)
				}
				out.SetFloat(f)
			}
		}
		if err != nil {
			return nil, afberrors.Wrap(afberrors.ErrArgument, err, "cast to "+t.String())
		}
		return out.Interface(), nil
	}
}

// isScalar reports whether t is a predeclared bool, string or real number type.
func isScalar(t reflect.Type) bool {
	if t.PkgPath() != "" || t.Name() == "" {
		return false
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
