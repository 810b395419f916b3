package spec

import (
	"reflect"

	afberrors "github.com/zjrosen/afb/internal/errors"
	"github.com/zjrosen/afb/internal/graph"
)

// Tup is the raw descriptor of a Tuple spec.
type Tup []any

// Parse builds a TypeSpec from a raw descriptor:
//
//	reflect.Type      -> Class
//	[]any{raw}        -> List
//	map[any]any{k: v} -> Dict
//	Tup{raw, ...}     -> Tuple
//
// An existing *TypeSpec is accepted and re-validated. Descriptors nest to any
// depth.
func Parse(raw any) (*TypeSpec, error) {
	return graph.Evaluate(raw, parseStep)
}

// MustParse is like Parse but panics on error.
func MustParse(raw any) *TypeSpec {
	s, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return s
}

func parseStep(raw any) (graph.Step[any, *TypeSpec], error) {
	switch v := raw.(type) {
	case reflect.Type:
		if v == nil {
			break
		}
		return graph.Leaf[any](Class(v)), nil

	case *TypeSpec:
		if v == nil {
			break
		}
		switch v.kind {
		case KindClass:
			return graph.Leaf[any](v), nil
		case KindList:
			return graph.Node(fuseList, []any{v.elems[0]}), nil
		case KindDict:
			return graph.Node(fuseDict, []any{v.elems[0], v.elems[1]}), nil
		case KindTuple:
			return graph.Node(fuseTuple, toAny(v.elems)), nil
		}

	case []any:
		if len(v) != 1 {
			return graph.Step[any, *TypeSpec]{}, afberrors.Newf(afberrors.ErrSignature,
				"list type descriptor must hold exactly one element type, got %d", len(v))
		}
		return graph.Node(fuseList, []any{v[0]}), nil

	case map[any]any:
		if len(v) != 1 {
			return graph.Step[any, *TypeSpec]{}, afberrors.Newf(afberrors.ErrSignature,
				"dict type descriptor must hold exactly one entry, got %d", len(v))
		}
		for k, val := range v {
			return graph.Node(fuseDict, []any{k, val}), nil
		}

	case Tup:
		if len(v) == 0 {
			return graph.Step[any, *TypeSpec]{}, afberrors.New(afberrors.ErrSignature,
				"tuple type descriptor must not be empty")
		}
		return graph.Node(fuseTuple, []any(v)), nil
	}

	return graph.Step[any, *TypeSpec]{}, afberrors.Newf(afberrors.ErrSignature,
		"unsupported type descriptor %T", raw)
}

func fuseList(children []*TypeSpec) (*TypeSpec, error) {
	return List(children[0]), nil
}

func fuseDict(children []*TypeSpec) (*TypeSpec, error) {
	if !children[0].goType.Comparable() {
		return nil, afberrors.Newf(afberrors.ErrSignature,
			"dict key type %s is not comparable", children[0])
	}
	return Dict(children[0], children[1]), nil
}

func fuseTuple(children []*TypeSpec) (*TypeSpec, error) {
	return Tuple(children...), nil
}

func toAny(specs []*TypeSpec) []any {
	out := make([]any, len(specs))
	for i, s := range specs {
		out[i] = s
	}
	return out
}
