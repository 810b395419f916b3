package spec

import (
	"fmt"
	"reflect"
)

// Kind identifies a TypeSpec variant.
type Kind int

const (
	KindClass Kind = iota
	KindList
	KindDict
	KindTuple
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	case KindTuple:
		return "tuple"
	default:
		return "unknown"
	}
}

var (
	anyType   = reflect.TypeFor[any]()
	tupleType = reflect.TypeFor[[]any]()
)

// TypeSpec is an immutable description of a parameter's shape.
type TypeSpec struct {
	kind   Kind
	class  reflect.Type
	elems  []*TypeSpec
	goType reflect.Type
}

// Class describes a single value of type t. A nil t means any.
func Class(t reflect.Type) *TypeSpec {
	if t == nil {
		t = anyType
	}
	return &TypeSpec{kind: KindClass, class: t, goType: t}
}

// ClassOf describes a single value of type T.
func ClassOf[T any]() *TypeSpec {
	return Class(reflect.TypeFor[T]())
}

// List describes a slice of elem.
func List(elem *TypeSpec) *TypeSpec {
	return &TypeSpec{
		kind:   KindList,
		elems:  []*TypeSpec{elem},
		goType: reflect.SliceOf(elem.goType),
	}
}

// Dict describes a map from key to val. It panics if key does not describe a
// comparable Go type; Parse reports that case as a signature error instead.
func Dict(key, val *TypeSpec) *TypeSpec {
	if !key.goType.Comparable() {
		panic(fmt.Sprintf("spec: dict key type %s is not comparable", key.goType))
	}
	return &TypeSpec{
		kind:   KindDict,
		elems:  []*TypeSpec{key, val},
		goType: reflect.MapOf(key.goType, val.goType),
	}
}

// Tuple describes a fixed-length positional sequence.
func Tuple(elems ...*TypeSpec) *TypeSpec {
	return &TypeSpec{
		kind:   KindTuple,
		elems:  append([]*TypeSpec(nil), elems...),
		goType: tupleType,
	}
}

// Kind returns the variant.
func (s *TypeSpec) Kind() Kind {
	return s.kind
}

// Class returns the described type of a Class spec, or nil for other variants.
func (s *TypeSpec) Class() reflect.Type {
	return s.class
}

// Elem returns the element spec of a List.
func (s *TypeSpec) Elem() *TypeSpec {
	if s.kind != KindList {
		return nil
	}
	return s.elems[0]
}

// Key returns the key spec of a Dict.
func (s *TypeSpec) Key() *TypeSpec {
	if s.kind != KindDict {
		return nil
	}
	return s.elems[0]
}

// Value returns the value spec of a Dict.
func (s *TypeSpec) Value() *TypeSpec {
	if s.kind != KindDict {
		return nil
	}
	return s.elems[1]
}

// Elems returns the positional specs of a Tuple.
func (s *TypeSpec) Elems() []*TypeSpec {
	if s.kind != KindTuple {
		return nil
	}
	return append([]*TypeSpec(nil), s.elems...)
}

// GoType returns the Go type a realized value of this spec has.
func (s *TypeSpec) GoType() reflect.Type {
	return s.goType
}

// Children returns the nested specs in declaration order.
func (s *TypeSpec) Children() []*TypeSpec {
	return append([]*TypeSpec(nil), s.elems...)
}

// Equal reports structural equality.
func (s *TypeSpec) Equal(other *TypeSpec) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.String() == other.String() && s.goType == other.goType
}

func (s *TypeSpec) String() string {
	return Render(s, QualifiedName)
}
