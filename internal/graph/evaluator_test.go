package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// tree is a test node: a leaf value or a list of children.
type tree struct {
	value    int
	children []*tree
}

func sumStep(n *tree) (Step[*tree, int], error) {
	if n.children == nil {
		return Leaf[*tree](n.value), nil
	}
	return Node(func(vals []int) (int, error) {
		total := 0
		for _, v := range vals {
			total += v
		}
		return total, nil
	}, n.children), nil
}

func recursiveSum(n *tree) int {
	if n.children == nil {
		return n.value
	}
	total := 0
	for _, c := range n.children {
		total += recursiveSum(c)
	}
	return total
}

func TestEvaluate_Leaf(t *testing.T) {
	got, err := Evaluate(&tree{value: 7}, sumStep)
	require.NoError(t, err)
	require.Equal(t, 7, got)
}

func TestEvaluate_EmptyNode(t *testing.T) {
	got, err := Evaluate(&tree{children: []*tree{}}, sumStep)
	require.NoError(t, err)
	require.Equal(t, 0, got)
}

func TestEvaluate_PostorderVisitsChildrenFirst(t *testing.T) {
	root := &tree{children: []*tree{
		{value: 1},
		{children: []*tree{{value: 2}, {value: 3}}},
		{value: 4},
	}}

	var order []int
	step := func(n *tree) (Step[*tree, int], error) {
		if n.children == nil {
			order = append(order, n.value)
			return Leaf[*tree](n.value), nil
		}
		return Node(func(vals []int) (int, error) {
			total := 0
			for _, v := range vals {
				total += v
			}
			order = append(order, -total)
			return total, nil
		}, n.children), nil
	}

	got, err := Evaluate(root, step)
	require.NoError(t, err)
	require.Equal(t, 10, got)
	require.Equal(t, []int{1, 2, 3, -5, 4, -10}, order)
}

func TestEvaluate_DeepNestingDoesNotRecurse(t *testing.T) {
	const depth = 100000

	var root any = 1
	for i := 0; i < depth; i++ {
		root = []any{root}
	}

	step := func(item any) (Step[any, int], error) {
		list, ok := item.([]any)
		if !ok {
			return Leaf[any](0), nil
		}
		return Node(func(vals []int) (int, error) {
			return vals[0] + 1, nil
		}, list), nil
	}

	got, err := Evaluate(root, step)
	require.NoError(t, err)
	require.Equal(t, depth, got)
}

func TestEvaluate_StepErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	root := &tree{children: []*tree{{value: 1}, {value: -1}, {value: 2}}}

	calls := 0
	_, err := Evaluate(root, func(n *tree) (Step[*tree, int], error) {
		calls++
		if n.value < 0 {
			return Step[*tree, int]{}, boom
		}
		return sumStep(n)
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 3, calls)
}

func TestEvaluate_FuseErrorAborts(t *testing.T) {
	boom := errors.New("fuse failed")
	root := &tree{children: []*tree{{value: 1}}}

	_, err := Evaluate(root, func(n *tree) (Step[*tree, int], error) {
		if n.children == nil {
			return Leaf[*tree](n.value), nil
		}
		return Node(func([]int) (int, error) { return 0, boom }, n.children), nil
	})
	require.ErrorIs(t, err, boom)
}

func TestEvaluate_NilFuseIsRejected(t *testing.T) {
	_, err := Evaluate(&tree{children: []*tree{}}, func(n *tree) (Step[*tree, int], error) {
		return Node[*tree, int](nil, n.children), nil
	})
	require.Error(t, err)
}

func genTree(depth int) *rapid.Generator[*tree] {
	return rapid.Custom(func(t *rapid.T) *tree {
		if depth == 0 || rapid.Bool().Draw(t, "leaf") {
			return &tree{value: rapid.IntRange(-100, 100).Draw(t, "value")}
		}
		n := rapid.IntRange(0, 4).Draw(t, "width")
		children := make([]*tree, n)
		for i := range children {
			children[i] = genTree(depth - 1).Draw(t, "child")
		}
		return &tree{children: children}
	})
}

func TestEvaluate_MatchesRecursiveEvaluation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		root := genTree(5).Draw(t, "tree")

		got, err := Evaluate(root, sumStep)
		require.NoError(t, err)
		require.Equal(t, recursiveSum(root), got)
	})
}
