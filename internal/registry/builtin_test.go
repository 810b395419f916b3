package registry

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	afberrors "github.com/zjrosen/afb/internal/errors"
	"github.com/zjrosen/afb/internal/spec"
)

type dictInput struct {
	Value map[string]any `afb:"value"`
}

// newDictDirectory has a unit for map[string]any and a holder unit that takes
// a mapping parameter.
func newDictDirectory(t *testing.T) (*Directory, *map[string]any) {
	t.Helper()
	d := NewDirectory()
	var seen map[string]any

	require.NoError(t, d.AddFactory(dictType, "make/pair", func() map[string]any {
		return map[string]any{"made": true}
	}, nil, false))
	require.NoError(t, d.AddFactory(holderT, "take/dict", func(in dictInput) *valueHolder {
		seen = in.Value
		return &valueHolder{Value: float64(len(in.Value))}
	}, spec.Signature{"value": dictType}, false))
	return d, &seen
}

// === Builtin keys ===

func TestBuiltins_InstalledPerClass(t *testing.T) {
	require.Equal(t, []string{"afb/from_config"}, New(holderT).BuiltinKeys())
	require.Equal(t, []string{"afb/direct", "afb/from_config", "afb/load_config"}, New(dictType).BuiltinKeys())
	require.Equal(t, []string{"afb/cast", "afb/from_config"}, NewFor[int]().BuiltinKeys())

	type celsius float64
	require.Equal(t, []string{"afb/from_config"}, NewFor[celsius]().BuiltinKeys())
}

// === Dict disambiguation ===

func TestBuiltins_MappingParameterDisambiguation(t *testing.T) {
	d, seen := newDictDirectory(t)

	tests := []struct {
		name  string
		value any
		want  map[string]any
	}{
		{"registered key builds object", map[string]any{"make/pair": nil}, map[string]any{"made": true}},
		{"unknown key is literal", map[string]any{"other": 1}, map[string]any{"other": 1}},
		{"many keys are literal", map[string]any{"make/pair": nil, "b": 2}, map[string]any{"make/pair": nil, "b": 2}},
		{"direct escapes a registered key",
			map[string]any{"afb/direct": map[string]any{"value": map[string]any{"make/pair": 1}}},
			map[string]any{"make/pair": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Make(holderT, "take/dict", map[string]any{"value": tt.value})
			require.NoError(t, err)
			require.Equal(t, tt.want, *seen)
		})
	}
}

func TestBuiltins_DirectRejectsNonMapping(t *testing.T) {
	_, err := New(dictType).Make(ReservedPrefix+BuiltinDirect, map[string]any{"value": 3})
	require.ErrorIs(t, err, afberrors.ErrTypeMismatch)
}

// === Cast ===

func TestBuiltins_Cast(t *testing.T) {
	tests := []struct {
		name  string
		class reflect.Type
		value any
		want  any
	}{
		{"string to int", reflect.TypeFor[int](), "42", 42},
		{"float to int8", reflect.TypeFor[int8](), 7.0, int8(7)},
		{"string to bool", reflect.TypeFor[bool](), "true", true},
		{"int to string", reflect.TypeFor[string](), 12, "12"},
		{"string to float32", reflect.TypeFor[float32](), "1.5", float32(1.5)},
		{"int to uint16", reflect.TypeFor[uint16](), 9, uint16(9)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := New(tt.class).Make("afb/cast", map[string]any{"value": tt.value})
			require.NoError(t, err)
			require.Equal(t, tt.want, out)
		})
	}
}

func TestBuiltins_CastFailures(t *testing.T) {
	_, err := NewFor[int8]().Make("afb/cast", map[string]any{"value": 300})
	require.ErrorIs(t, err, afberrors.ErrArgument)
	require.Contains(t, err.Error(), "overflows int8")

	_, err = NewFor[int]().Make("afb/cast", map[string]any{"value": "many"})
	require.ErrorIs(t, err, afberrors.ErrArgument)
}

func TestBuiltins_CastAsParameter(t *testing.T) {
	d := NewDirectory()
	require.NoError(t, d.AddFactory(holderT, "create/int", func(in intValue) *valueHolder {
		return &valueHolder{Value: float64(in.Value)}
	}, spec.Signature{"value": intT}, false))

	out, err := MakeAs[*valueHolder](d, "create/int", map[string]any{
		"value": map[string]any{"afb/cast": map[string]any{"value": "5"}},
	})
	require.NoError(t, err)
	require.Equal(t, 5.0, out.Value)
}

// === Config files ===

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuiltins_FromConfig(t *testing.T) {
	d := newTestDirectory(t)
	path := writeFile(t, "holder.yaml", `
sum/list/vh:
  values:
    - create/int:
        value: 2
    - create/float:
        value: 0.5
`)

	out, err := MakeAs[*valueHolder](d, "afb/from_config", map[string]any{"config": path})
	require.NoError(t, err)
	require.Equal(t, 2.5, out.Value)

	nested := writeFile(t, "adder.json", `{"create/vhs": {"values": [{"afb/from_config": {"config": "`+path+`"}}]}}`)
	sum, err := MakeAs[*adder](d, "afb/from_config", map[string]any{"config": nested})
	require.NoError(t, err)
	require.Equal(t, 2.5, sum.Total)
}

func TestBuiltins_FromConfigMissingFile(t *testing.T) {
	d := newTestDirectory(t)
	_, err := d.Make(holderT, "afb/from_config", map[string]any{
		"config": filepath.Join(t.TempDir(), "missing.yaml"),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), `("afb/from_config")`)
}

func TestBuiltins_LoadConfig(t *testing.T) {
	path := writeFile(t, "settings.toml", "name = \"demo\"\nsize = 3\n")

	out, err := New(dictType).Make("afb/load_config", map[string]any{"config": path})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"name": "demo", "size": int64(3)}, out)
}
