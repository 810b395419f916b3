package sweep

import (
	"maps"
	"reflect"
	"slices"
	"strconv"

	afberrors "github.com/zjrosen/afb/internal/errors"
	"github.com/zjrosen/afb/internal/factory"
	"github.com/zjrosen/afb/internal/registry"
)

// Class is the target class of every sweep unit.
var Class = reflect.TypeFor[Values]()

var (
	anyType  = reflect.TypeFor[any]()
	intType  = reflect.TypeFor[int]()
	strType  = reflect.TypeFor[string]()
	dictType = reflect.TypeFor[map[string]any]()
)

type enumInput struct {
	Values []any `afb:"values"`
}

type rangeInput struct {
	Start int `afb:"start,optional"`
	Stop  int `afb:"stop"`
	Step  int `afb:"step,optional"`
}

type gridInput struct {
	Members map[string]Values `afb:"values_map"`
	Base    map[string]any    `afb:"base,optional"`
}

type concatInput struct {
	Members []Values `afb:"values_list"`
}

// Units returns the sweep unit declarations by key.
func Units() map[string]*factory.Builder {
	return map[string]*factory.Builder{
		"enum": factory.NewBuilder(Class).
			Func(func(in enumInput) Values { return &Enum{Items: in.Values} }).
			RequiredParam("values", []any{anyType}, "Values to iterate over.").
			Description("Values given in the manifest.", "Iterates through the values in the given order."),
		"range": factory.NewBuilder(Class).
			Func(newRange).
			Param("start", intType, "First value.").
			RequiredParam("stop", intType, "Bound, excluded.").
			Param("step", intType, "Increment, may be negative but not zero.").
			Default("start", 0).
			Default("step", 1).
			Description("Integers from start up to stop.", ""),
		"zip": gridUnit(Zip, "Parameter maps zipped from named values.",
			"Yields one map per position, stopping with the shortest member."),
		"prod": gridUnit(Product, "Parameter maps over every combination of named values.",
			"Names are iterated in sorted order, the last one varying fastest."),
		"concat": factory.NewBuilder(Class).
			Func(newConcat).
			RequiredParam("values_list", []any{Class}, "Values to chain.").
			Description("Values of each member in turn.", ""),
	}
}

// Register installs the sweep units into the Values registry of d.
func Register(d *registry.Directory, override bool) error {
	r := d.GetOrCreate(Class)
	for key, b := range Units() {
		unit, err := b.Build()
		if err != nil {
			return afberrors.With(err, "register", "sweep.Values", key)
		}
		if err := r.Register(key, unit, override); err != nil {
			return err
		}
	}
	return nil
}

func newRange(in rangeInput) (Values, error) {
	if in.Step == 0 {
		return nil, afberrors.New(afberrors.ErrArgument, "step cannot be zero", "step")
	}
	return &Range{Start: in.Start, Stop: in.Stop, Step: in.Step}, nil
}

func newConcat(in concatInput) (Values, error) {
	for i, m := range in.Members {
		if m == nil {
			return nil, afberrors.New(afberrors.ErrArgument, "values_list member is null", strconv.Itoa(i))
		}
	}
	return &Concat{Members: in.Members}, nil
}

func gridUnit(c Combine, short, long string) *factory.Builder {
	return factory.NewBuilder(Class).
		Func(func(in gridInput) (Values, error) {
			for _, name := range slices.Sorted(maps.Keys(in.Members)) {
				if in.Members[name] == nil {
					return nil, afberrors.New(afberrors.ErrArgument, "values_map member is null", name)
				}
			}
			return &Grid{Combine: c, Members: in.Members, Base: in.Base}, nil
		}).
		RequiredParam("values_map", map[any]any{strType: Class}, "Values by parameter name.").
		Param("base", dictType, "Parameters shared by every map.").
		Description(short, long)
}
