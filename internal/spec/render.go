package spec

import (
	"reflect"
	"strings"

	"github.com/zjrosen/afb/internal/graph"
)

// Render formats s with name used for every Class, e.g. "[int]",
// "{string: float64}" or "(int, float64)".
func Render(s *TypeSpec, name func(reflect.Type) string) string {
	out, _ := graph.Evaluate(s, func(n *TypeSpec) (graph.Step[*TypeSpec, string], error) {
		switch n.kind {
		case KindList:
			return graph.Node(func(c []string) (string, error) {
				return "[" + c[0] + "]", nil
			}, n.elems), nil
		case KindDict:
			return graph.Node(func(c []string) (string, error) {
				return "{" + c[0] + ": " + c[1] + "}", nil
			}, n.elems), nil
		case KindTuple:
			return graph.Node(func(c []string) (string, error) {
				return "(" + strings.Join(c, ", ") + ")", nil
			}, n.elems), nil
		default:
			return graph.Leaf[*TypeSpec](name(n.class)), nil
		}
	})
	return out
}

// Classes returns every distinct class referenced by s, in first-seen order.
func Classes(s *TypeSpec) []reflect.Type {
	var out []reflect.Type
	seen := make(map[reflect.Type]bool)
	stack := []*TypeSpec{s}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.kind == KindClass {
			if !seen[n.class] {
				seen[n.class] = true
				out = append(out, n.class)
			}
			continue
		}
		for i := len(n.elems) - 1; i >= 0; i-- {
			stack = append(stack, n.elems[i])
		}
	}
	return out
}
