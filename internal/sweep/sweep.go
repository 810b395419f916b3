// Package sweep provides parameter-sweep values: finite sequences that can be
// declared in a manifest and combined by zipping or taking their product.
//
// A typical manifest builds the grid of parameter maps for a batch of runs:
//
//	prod:
//	  values_map:
//	    rate: {enum: {values: [0.1, 0.01]}}
//	    seed: {range: {stop: 3}}
//	  base:
//	    epochs: 10
package sweep

import (
	"iter"
	"maps"
	"slices"
	"sort"
)

// Values is a finite, restartable sequence of values.
type Values interface {
	Iterator() iter.Seq[any]
}

// Collect returns every value of v in order.
func Collect(v Values) []any {
	if v == nil {
		return nil
	}
	return slices.Collect(v.Iterator())
}

// Enum yields its items in order.
type Enum struct {
	Items []any
}

func (e *Enum) Iterator() iter.Seq[any] {
	return slices.Values(e.Items)
}

// Range yields the integers from Start up to, but excluding, Stop.
type Range struct {
	Start, Stop, Step int
}

func (r *Range) Iterator() iter.Seq[any] {
	return func(yield func(any) bool) {
		if r.Step == 0 {
			return
		}
		for i := r.Start; (r.Step > 0 && i < r.Stop) || (r.Step < 0 && i > r.Stop); i += r.Step {
			if !yield(i) {
				return
			}
		}
	}
}

// Concat yields every value of each member in turn.
type Concat struct {
	Members []Values
}

func (c *Concat) Iterator() iter.Seq[any] {
	return func(yield func(any) bool) {
		for _, m := range c.Members {
			for v := range m.Iterator() {
				if !yield(v) {
					return
				}
			}
		}
	}
}

// Combine selects how a Grid pairs up the values of its members.
type Combine int

const (
	// Zip stops with the shortest member.
	Zip Combine = iota
	// Product enumerates every combination, the last name varying fastest.
	Product
)

// Grid yields one parameter map per combination of its members' values. Each
// map is a copy of Base updated with the combination under the member names.
type Grid struct {
	Combine Combine
	Members map[string]Values
	Base    map[string]any
}

// Names returns the member names in iteration order.
func (g *Grid) Names() []string {
	names := slices.Collect(maps.Keys(g.Members))
	sort.Strings(names)
	return names
}

func (g *Grid) Iterator() iter.Seq[any] {
	names := g.Names()
	if len(names) == 0 {
		return func(func(any) bool) {}
	}
	var combos iter.Seq[[]any]
	if g.Combine == Product {
		combos = g.product(names)
	} else {
		combos = g.zip(names)
	}
	return func(yield func(any) bool) {
		for combo := range combos {
			out := deepCopy(g.Base).(map[string]any)
			for i, name := range names {
				out[name] = combo[i]
			}
			if !yield(out) {
				return
			}
		}
	}
}

func (g *Grid) zip(names []string) iter.Seq[[]any] {
	return func(yield func([]any) bool) {
		nexts := make([]func() (any, bool), len(names))
		for i, name := range names {
			next, stop := iter.Pull(g.Members[name].Iterator())
			defer stop()
			nexts[i] = next
		}
		for {
			combo := make([]any, len(nexts))
			for i, next := range nexts {
				v, ok := next()
				if !ok {
					return
				}
				combo[i] = v
			}
			if !yield(combo) {
				return
			}
		}
	}
}

func (g *Grid) product(names []string) iter.Seq[[]any] {
	return func(yield func([]any) bool) {
		pools := make([][]any, len(names))
		for i, name := range names {
			pools[i] = Collect(g.Members[name])
			if len(pools[i]) == 0 {
				return
			}
		}
		idx := make([]int, len(pools))
		for {
			combo := make([]any, len(pools))
			for i, p := range pools {
				combo[i] = p[idx[i]]
			}
			if !yield(combo) {
				return
			}
			i := len(idx) - 1
			for ; i >= 0; i-- {
				idx[i]++
				if idx[i] < len(pools[i]) {
					break
				}
				idx[i] = 0
			}
			if i < 0 {
				return
			}
		}
	}
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if val == nil {
				out[k] = nil
				continue
			}
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			if val == nil {
				continue
			}
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}
