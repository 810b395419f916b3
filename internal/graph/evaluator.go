// Package graph evaluates trees in postorder without recursion.
//
// A tree is never materialized up front. Evaluate starts from a root item and
// asks a StepFunc to classify every item it meets: either the item is a leaf
// with a finished value, or it is a node whose children must be evaluated
// first and whose value is then produced by a Fuse over the children's values.
//
// Frames live on an explicit stack, so nesting depth is bounded by memory
// rather than by the goroutine stack.
package graph

import "fmt"

// Fuse combines the values of a node's children, in order, into the node's
// value.
type Fuse[V any] func(children []V) (V, error)

// Step is the classification of a single item.
type Step[I, V any] struct {
	value    V
	fuse     Fuse[V]
	children []I
	node     bool
}

// Leaf marks an item as finished with value v.
func Leaf[I, V any](v V) Step[I, V] {
	return Step[I, V]{value: v}
}

// Node marks an item as an inner node. children are evaluated left to right
// and their values passed to fuse. fuse must not be nil.
func Node[I, V any](fuse Fuse[V], children []I) Step[I, V] {
	return Step[I, V]{fuse: fuse, children: children, node: true}
}

// IsNode reports whether the step pushes a new frame.
func (s Step[I, V]) IsNode() bool {
	return s.node
}

// StepFunc classifies one item.
type StepFunc[I, V any] func(item I) (Step[I, V], error)

type frame[I, V any] struct {
	fuse     Fuse[V]
	children []I
	next     int
	results  []V
}

// Evaluate walks the tree rooted at root and returns the root's value.
// The first error returned by step or by a Fuse aborts the walk.
func Evaluate[I, V any](root I, step StepFunc[I, V]) (V, error) {
	var zero V

	stack := []*frame[I, V]{{children: []I{root}}}
	for {
		top := stack[len(stack)-1]

		if top.next < len(top.children) {
			item := top.children[top.next]
			top.next++

			s, err := step(item)
			if err != nil {
				return zero, err
			}
			if !s.node {
				top.results = append(top.results, s.value)
				continue
			}
			if s.fuse == nil {
				return zero, fmt.Errorf("graph: node without fuse at depth %d", len(stack))
			}
			stack = append(stack, &frame[I, V]{
				fuse:     s.fuse,
				children: s.children,
				results:  make([]V, 0, len(s.children)),
			})
			continue
		}

		// Frame exhausted.
		stack[len(stack)-1] = nil
		stack = stack[:len(stack)-1]
		if len(stack) == 0 {
			return top.results[0], nil
		}

		v, err := top.fuse(top.results)
		if err != nil {
			return zero, err
		}
		parent := stack[len(stack)-1]
		parent.results = append(parent.results, v)
	}
}
