package registry

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/afb/internal/spec"
)

// === Fixtures ===

type valueHolder struct {
	Value float64
}

type adder struct {
	Total float64
}

type intValue struct {
	Value int `afb:"value"`
}

type floatValue struct {
	Value float64 `afb:"value"`
}

type tupleValues struct {
	Values []any `afb:"values"`
}

type intValues struct {
	Values []int `afb:"values"`
}

type floatValues struct {
	Values []float64 `afb:"values"`
}

type holderValues struct {
	Values []*valueHolder `afb:"values"`
}

type holderPairs struct {
	Values map[*valueHolder]*valueHolder `afb:"values"`
}

var (
	holderT = reflect.TypeFor[*valueHolder]()
	adderT  = reflect.TypeFor[*adder]()
	intT    = reflect.TypeFor[int]()
	floatT  = reflect.TypeFor[float64]()
)

// newHolderRegistry builds the *valueHolder units used across tests.
func newHolderRegistry(t *testing.T) *Registry {
	t.Helper()
	r := New(holderT)

	require.NoError(t, r.AddFactory("create/int", func(in intValue) *valueHolder {
		return &valueHolder{Value: float64(in.Value)}
	}, spec.Signature{"value": intT}, false))

	require.NoError(t, r.AddFactory("create/float", func(in floatValue) *valueHolder {
		return &valueHolder{Value: in.Value}
	}, spec.Signature{"value": floatT}, false))

	require.NoError(t, r.AddFactory("sum/tuple", func(in tupleValues) *valueHolder {
		total := float64(in.Values[0].(int)) + in.Values[1].(float64) +
			float64(in.Values[2].(int)) + in.Values[3].(float64)
		return &valueHolder{Value: total}
	}, spec.Signature{"values": spec.Tup{intT, floatT, intT, floatT}}, false))

	require.NoError(t, r.AddFactory("sum/list/int", func(in intValues) *valueHolder {
		total := 0
		for _, v := range in.Values {
			total += v
		}
		return &valueHolder{Value: float64(total)}
	}, spec.Signature{"values": []any{intT}}, false))

	require.NoError(t, r.AddFactory("sum/list/vh", func(in holderValues) *valueHolder {
		total := 0.0
		for _, v := range in.Values {
			total += v.Value
		}
		return &valueHolder{Value: total}
	}, spec.Signature{"values": []any{holderT}}, false))

	require.NoError(t, r.AddFactory("sum/key-values/vh", func(in holderPairs) *valueHolder {
		total := 0.0
		for k, v := range in.Values {
			total += k.Value + v.Value
		}
		return &valueHolder{Value: total}
	}, spec.Signature{"values": map[any]any{holderT: holderT}}, false))

	return r
}

// newAdderRegistry builds *adder units that consume value holders.
func newAdderRegistry(t *testing.T) *Registry {
	t.Helper()
	r := New(adderT)

	require.NoError(t, r.AddFactory("create/floats", func(in floatValues) *adder {
		total := 0.0
		for _, v := range in.Values {
			total += v
		}
		return &adder{Total: total}
	}, spec.Signature{"values": []any{floatT}}, false))

	require.NoError(t, r.AddFactory("create/vhs", func(in holderValues) *adder {
		total := 0.0
		for _, v := range in.Values {
			total += v.Value
		}
		return &adder{Total: total}
	}, spec.Signature{"values": []any{holderT}}, false))

	return r
}

// newTestDirectory binds both fixture registries to a fresh Directory.
func newTestDirectory(t *testing.T) *Directory {
	t.Helper()
	d := NewDirectory()
	require.NoError(t, d.RegisterAll([]*Registry{newHolderRegistry(t), newAdderRegistry(t)}, false))
	return d
}
