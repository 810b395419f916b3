package spec

import (
	"testing"

	"github.com/stretchr/testify/require"

	afberrors "github.com/zjrosen/afb/internal/errors"
)

// realize composes a manifest holding only direct values, the way the
// construction engine does for parameters without object specs.
func realize(t *testing.T, s *TypeSpec, manifest any) any {
	t.Helper()
	if s.Kind() == KindClass {
		v, ok := Direct(manifest, s.GoType(), nil)
		require.True(t, ok)
		return v
	}
	pairs, err := s.Decompose(manifest)
	require.NoError(t, err)
	values := make([]any, len(pairs))
	for i, p := range pairs {
		values[i] = realize(t, p.Spec, p.Manifest)
	}
	out, err := s.Compose(values)
	require.NoError(t, err)
	return out
}

func TestDecompose_List(t *testing.T) {
	s := MustParse([]any{intT})
	require.Equal(t, []int{1, 2, 3}, realize(t, s, []any{1, 2, 3}))
	require.Equal(t, []int{}, realize(t, s, []any{}))
}

func TestDecompose_ListCoercesDecodedNumbers(t *testing.T) {
	s := MustParse([]any{intT})
	require.Equal(t, []int{1, 2}, realize(t, s, []any{1.0, float64(2)}))
}

func TestDecompose_DictFromMapping(t *testing.T) {
	s := MustParse(map[any]any{stringT: intT})
	got := realize(t, s, map[string]any{"a": 1, "b": 2})
	require.Equal(t, map[string]int{"a": 1, "b": 2}, got)
}

func TestDecompose_DictFromEntryList(t *testing.T) {
	s := MustParse(map[any]any{stringT: intT})
	got := realize(t, s, []any{
		map[string]any{"key": "a", "value": 1},
		map[string]any{"key": "b", "value": 2},
	})
	require.Equal(t, map[string]int{"a": 1, "b": 2}, got)
}

func TestDecompose_DictAlternatesKeysAndValuesInOrder(t *testing.T) {
	s := MustParse(map[any]any{stringT: intT})
	pairs, err := s.Decompose(map[string]any{"b": 2, "a": 1})
	require.NoError(t, err)
	require.Len(t, pairs, 4)
	require.Equal(t, "a", pairs[0].Manifest)
	require.Equal(t, 1, pairs[1].Manifest)
	require.Equal(t, "b", pairs[2].Manifest)
	require.True(t, pairs[0].Spec.Equal(ClassOf[string]()))
	require.True(t, pairs[1].Spec.Equal(ClassOf[int]()))
}

func TestDecompose_Tuple(t *testing.T) {
	s := MustParse(Tup{intT, floatT})
	require.Equal(t, []any{1, 2.5}, realize(t, s, []any{1, 2.5}))
}

func TestDecompose_FormatErrors(t *testing.T) {
	tests := []struct {
		name     string
		raw      any
		manifest any
	}{
		{"list from scalar", []any{intT}, 3},
		{"list from string", []any{intT}, "abc"},
		{"tuple too short", Tup{intT, floatT}, []any{1}},
		{"tuple too long", Tup{intT}, []any{1, 2}},
		{"dict from scalar", map[any]any{stringT: intT}, 3},
		{"dict entry missing value", map[any]any{stringT: intT}, []any{map[string]any{"key": "a"}}},
		{"dict entry wrong keys", map[any]any{stringT: intT}, []any{map[string]any{"k": "a", "v": 1}}},
		{"class", intT, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MustParse(tt.raw).Decompose(tt.manifest)
			require.ErrorIs(t, err, afberrors.ErrInvalidFormat)
		})
	}
}

func TestCompose_RejectsMismatchedValues(t *testing.T) {
	_, err := MustParse([]any{intT}).Compose([]any{"x"})
	require.ErrorIs(t, err, afberrors.ErrTypeMismatch)

	_, err = MustParse(map[any]any{stringT: intT}).Compose([]any{"a"})
	require.ErrorIs(t, err, afberrors.ErrInvalidFormat)
}

func TestCompose_RejectsUnhashableKeys(t *testing.T) {
	s := Dict(Class(nil), ClassOf[int]())
	_, err := s.Compose([]any{[]int{1}, 1})
	require.ErrorIs(t, err, afberrors.ErrInvalidFormat)
}

func TestCompose_NilItemsBecomeZeroValues(t *testing.T) {
	got, err := MustParse([]any{intT}).Compose([]any{nil, 4})
	require.NoError(t, err)
	require.Equal(t, []int{0, 4}, got)
}
