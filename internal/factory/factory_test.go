package factory

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	afberrors "github.com/zjrosen/afb/internal/errors"
	"github.com/zjrosen/afb/internal/spec"
)

// === Fixtures ===

type valueHolder struct {
	Value float64
}

type holderInput struct {
	Value float64 `afb:"value"`
	Scale float64 `afb:"scale,optional"`
}

func newHolder(in holderInput) *valueHolder {
	scale := in.Scale
	if scale == 0 {
		scale = 1
	}
	return &valueHolder{Value: in.Value * scale}
}

type sinkInput struct {
	Value float64        `afb:"value"`
	Extra map[string]any `afb:",remain"`
}

var (
	holderT = reflect.TypeFor[*valueHolder]()
	floatT  = reflect.TypeFor[float64]()
)

func newTestFactory(t *testing.T, opts ...Option) *Factory {
	t.Helper()
	f, err := New(holderT, newHolder, spec.Signature{
		"value": floatT,
		"scale": spec.Param{Type: floatT, Description: "Multiplier."},
	}, opts...)
	require.NoError(t, err)
	return f
}

// === Signature ===

func TestNew_PartitionsRequiredAndOptional(t *testing.T) {
	f := newTestFactory(t)

	sig := f.Signature()
	require.Equal(t, []string{"value", "scale"}, sig.Names())
	require.Equal(t, []string{"value"}, sig.Required())
	require.Equal(t, []string{"scale"}, sig.Optional())
	require.True(t, sig.IsRequired("value"))
	require.False(t, sig.IsRequired("scale"))

	p, ok := sig.Param("scale")
	require.True(t, ok)
	require.Equal(t, "Multiplier.", p.Description)
}

func TestNew_MissingRequiredParameter(t *testing.T) {
	_, err := New(holderT, newHolder, spec.Signature{"scale": floatT})

	require.ErrorIs(t, err, afberrors.ErrSignature)
	var e *afberrors.Error
	require.True(t, errors.As(err, &e))
	require.Equal(t, []string{"missing value"}, e.Items)
}

func TestNew_UnknownParameterWithoutSink(t *testing.T) {
	_, err := New(holderT, newHolder, spec.Signature{"value": floatT, "bogus": floatT, "other": floatT})

	var e *afberrors.Error
	require.True(t, errors.As(err, &e))
	require.ErrorIs(t, err, afberrors.ErrSignature)
	require.Equal(t, []string{"unknown bogus", "unknown other"}, e.Items)
}

func TestNew_UnknownParameterWithSinkIsOptional(t *testing.T) {
	fn := func(in sinkInput) *valueHolder { return &valueHolder{Value: in.Value} }
	f, err := New(holderT, fn, spec.Signature{
		"value": floatT,
		"note":  reflect.TypeFor[string](),
		"tag":   spec.Param{Type: reflect.TypeFor[string](), Required: true},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"value", "tag"}, f.Signature().Required())
	require.Equal(t, []string{"note"}, f.Signature().Optional())
}

func TestNew_RequiredOverrides(t *testing.T) {
	f := newTestFactory(t, WithRequired("scale"))
	require.Equal(t, []string{"value", "scale"}, f.Signature().Required())

	_, err := New(holderT, newHolder, spec.Signature{"value": floatT}, WithRequired("nope"))
	require.ErrorIs(t, err, afberrors.ErrSignature)
}

func TestNew_TypeMismatchBetweenDeclarationAndField(t *testing.T) {
	_, err := New(holderT, newHolder, spec.Signature{"value": reflect.TypeFor[string]()})
	require.ErrorIs(t, err, afberrors.ErrSignature)
}

func TestNew_UnsupportedCallables(t *testing.T) {
	tests := []struct {
		name string
		fn   any
	}{
		{"nil", nil},
		{"not a func", 42},
		{"nil func", (func() *valueHolder)(nil)},
		{"two params", func(a, b int) *valueHolder { return nil }},
		{"scalar param", func(a int) *valueHolder { return nil }},
		{"variadic", func(a ...int) *valueHolder { return nil }},
		{"no results", func() {}},
		{"second result not error", func() (*valueHolder, int) { return nil, 0 }},
		{"wrong result type", func() string { return "" }},
		{"bad remain field", func(struct {
			Extra map[string]int `afb:",remain"`
		}) *valueHolder {
			return nil
		}},
		{"bad tag option", func(struct {
			X int `afb:"x,sometimes"`
		}) *valueHolder {
			return nil
		}},
		{"duplicate name", func(struct {
			X int `afb:"x"`
			Y int `afb:"x"`
		}) *valueHolder {
			return nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(holderT, tt.fn, nil)
			require.ErrorIs(t, err, afberrors.ErrSignature)
		})
	}
}

func TestNew_DefaultsMustBeDeclared(t *testing.T) {
	_, err := New(holderT, newHolder, spec.Signature{"value": floatT}, WithDefaults(map[string]any{"scale": 2.0}))
	require.ErrorIs(t, err, afberrors.ErrSignature)
}

func TestNew_NilClass(t *testing.T) {
	_, err := New(nil, newHolder, nil)
	require.ErrorIs(t, err, afberrors.ErrSignature)
}

func TestNew_PointerInputStruct(t *testing.T) {
	fn := func(in *holderInput) *valueHolder { return &valueHolder{Value: in.Value} }
	f, err := New(holderT, fn, spec.Signature{"value": floatT})
	require.NoError(t, err)

	out, err := f.Invoke(map[string]any{"value": 3.0})
	require.NoError(t, err)
	require.Equal(t, 3.0, out.(*valueHolder).Value)
}

// === MergeInputs ===

func TestMergeInputs_LayersDefaultsUnderInputs(t *testing.T) {
	f := newTestFactory(t, WithDefaults(map[string]any{"value": 1.0, "scale": 2.0}))

	got, err := f.MergeInputs(map[string]any{"scale": 3.0})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"value": 1.0, "scale": 3.0}, got)
}

func TestMergeInputs_ReportsAllInvalidKeys(t *testing.T) {
	f := newTestFactory(t)

	_, err := f.MergeInputs(map[string]any{"value": 1.0, "zeta": 1, "alpha": 2})
	require.ErrorIs(t, err, afberrors.ErrArgument)
	var e *afberrors.Error
	require.True(t, errors.As(err, &e))
	require.Equal(t, []string{"alpha", "zeta"}, e.Items)
}

func TestMergeInputs_ReportsAllMissingKeys(t *testing.T) {
	f := newTestFactory(t, WithRequired("scale"))

	_, err := f.MergeInputs(nil)
	require.ErrorIs(t, err, afberrors.ErrArgument)
	var e *afberrors.Error
	require.True(t, errors.As(err, &e))
	require.Equal(t, []string{"value", "scale"}, e.Items)
}

func TestMergeInputs_NullCountsAsSupplied(t *testing.T) {
	f := newTestFactory(t)
	got, err := f.MergeInputs(map[string]any{"value": nil})
	require.NoError(t, err)
	require.Contains(t, got, "value")
}

// === Invoke ===

func TestInvoke_PassesArguments(t *testing.T) {
	f := newTestFactory(t)

	out, err := f.Invoke(map[string]any{"value": 2.0, "scale": 4.0})
	require.NoError(t, err)
	require.Equal(t, &valueHolder{Value: 8}, out)
}

func TestInvoke_CoercesNumbers(t *testing.T) {
	f := newTestFactory(t)

	out, err := f.Invoke(map[string]any{"value": 2})
	require.NoError(t, err)
	require.Equal(t, &valueHolder{Value: 2}, out)
}

func TestInvoke_RejectsUnassignableArguments(t *testing.T) {
	f := newTestFactory(t)

	_, err := f.Invoke(map[string]any{"value": "two"})
	require.ErrorIs(t, err, afberrors.ErrArgument)
	require.ErrorIs(t, err, afberrors.ErrTypeMismatch)
}

func TestInvoke_SinkReceivesExtraArguments(t *testing.T) {
	var got map[string]any
	fn := func(in sinkInput) *valueHolder {
		got = in.Extra
		return &valueHolder{Value: in.Value}
	}
	f, err := New(holderT, fn, spec.Signature{"value": floatT, "note": reflect.TypeFor[string]()})
	require.NoError(t, err)

	_, err = f.Invoke(map[string]any{"value": 1.0, "note": "hi"})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"note": "hi"}, got)
}

func TestInvoke_MapCallable(t *testing.T) {
	fn := func(args map[string]any) (*valueHolder, error) {
		return &valueHolder{Value: args["value"].(float64)}, nil
	}
	f, err := New(holderT, fn, spec.Signature{"value": spec.Param{Type: floatT, Required: true}})
	require.NoError(t, err)
	require.Equal(t, []string{"value"}, f.Signature().Required())

	out, err := f.Invoke(map[string]any{"value": 5.0})
	require.NoError(t, err)
	require.Equal(t, &valueHolder{Value: 5}, out)
}

func TestInvoke_NoArgCallable(t *testing.T) {
	f, err := New(holderT, func() *valueHolder { return &valueHolder{Value: 9} }, nil)
	require.NoError(t, err)
	require.Zero(t, f.Signature().Len())

	out, err := f.Invoke(nil)
	require.NoError(t, err)
	require.Equal(t, &valueHolder{Value: 9}, out)
}

func TestInvoke_ReturnsCallableError(t *testing.T) {
	boom := errors.New("boom")
	f, err := New(holderT, func() (*valueHolder, error) { return nil, boom }, nil)
	require.NoError(t, err)

	_, err = f.Invoke(nil)
	require.ErrorIs(t, err, boom)
}

func TestInvoke_NilResultIsAllowed(t *testing.T) {
	f, err := New(holderT, func() *valueHolder { return nil }, nil)
	require.NoError(t, err)

	out, err := f.Invoke(nil)
	require.NoError(t, err)
	require.Nil(t, out)
}

func TestInvoke_ResultOfWrongClass(t *testing.T) {
	f, err := New(holderT, func() any { return "not a holder" }, nil)
	require.NoError(t, err)

	_, err = f.Invoke(nil)
	require.ErrorIs(t, err, afberrors.ErrTypeMismatch)
	require.Contains(t, err.Error(), "expected *factory.valueHolder, got string")
}

func TestInvoke_InterfaceClassAcceptsImplementations(t *testing.T) {
	f, err := New(reflect.TypeFor[error](), func() error { return errors.New("x") }, nil)
	require.NoError(t, err)

	out, err := f.Invoke(nil)
	require.NoError(t, err)
	require.EqualError(t, out.(error), "x")
}

// === Descriptions ===

func TestSplitDoc(t *testing.T) {
	short, long := SplitDoc(`
		Creates a holder.

		The value is multiplied by scale.
		  Indented detail.
	`)
	require.Equal(t, "Creates a holder.", short)
	require.Equal(t, "The value is multiplied by scale.\n  Indented detail.", long)

	short, long = SplitDoc("One liner")
	require.Equal(t, "One liner", short)
	require.Empty(t, long)

	short, long = SplitDoc("   \n  ")
	require.Empty(t, short)
	require.Empty(t, long)
}

func TestDescriptionOptions(t *testing.T) {
	f := newTestFactory(t, WithDoc("Short.\nLong text."))
	require.Equal(t, "Short.", f.ShortDescription())
	require.Equal(t, "Long text.", f.LongDescription())

	f = newTestFactory(t, WithDescriptionMap(map[string]any{"short": "S", "long": "L"}))
	require.Equal(t, "S", f.ShortDescription())
	require.Equal(t, "L", f.LongDescription())

	_, err := New(holderT, newHolder, spec.Signature{"value": floatT},
		WithDescriptionMap(map[string]any{"summary": "S"}))
	require.ErrorIs(t, err, afberrors.ErrInvalidFormat)
}

// === Builder ===

func TestBuilder_BuildsUnit(t *testing.T) {
	f, err := NewBuilder(holderT).
		Func(newHolder).
		RequiredParam("value", floatT, "Base value.").
		Param("scale", floatT, "Multiplier.").
		Default("scale", 2.0).
		Description("Holder.", "Builds a holder.").
		Build()
	require.NoError(t, err)

	require.Equal(t, "Holder.", f.ShortDescription())
	require.Equal(t, map[string]any{"scale": 2.0}, f.Defaults())

	args, err := f.MergeInputs(map[string]any{"value": 1.5})
	require.NoError(t, err)
	out, err := f.Invoke(args)
	require.NoError(t, err)
	require.Equal(t, &valueHolder{Value: 3}, out)
}

func TestBuilder_RequireAndDoc(t *testing.T) {
	f, err := NewBuilder(holderT).
		Func(newHolder).
		Param("value", floatT, "").
		Param("scale", floatT, "").
		Require("scale").
		Doc("Holder.\n\nDetails.").
		Build()
	require.NoError(t, err)
	require.Equal(t, []string{"value", "scale"}, f.Signature().Required())
	require.Equal(t, "Details.", f.LongDescription())
}

func TestBuilder_WithoutFunc(t *testing.T) {
	_, err := NewBuilder(holderT).Param("value", floatT, "").Build()
	require.ErrorIs(t, err, afberrors.ErrSignature)
}
