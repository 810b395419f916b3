package registry

import (
	"reflect"

	afberrors "github.com/zjrosen/afb/internal/errors"
	"github.com/zjrosen/afb/internal/graph"
	"github.com/zjrosen/afb/internal/spec"
)

// task is one pending (type spec, manifest) pair.
type task struct {
	spec     *spec.TypeSpec
	manifest any
}

// walker resolves classes relative to the Registry that started a walk.
type walker struct {
	origin *Registry
}

func realize(origin *Registry, ts *spec.TypeSpec, manifest any) (any, error) {
	w := &walker{origin: origin}
	return graph.Evaluate(task{spec: ts, manifest: manifest}, w.step)
}

// registryFor returns the Registry for cls: the origin itself, or the one held
// by the origin's Directory.
func (w *walker) registryFor(cls reflect.Type) (*Registry, error) {
	if cls == w.origin.class {
		return w.origin, nil
	}
	d := w.origin.Directory()
	if d == nil {
		return nil, afberrors.Newf(afberrors.ErrGraph,
			"registry for %s is not bound to a directory, cannot resolve %s",
			w.origin.name(), spec.QualifiedName(cls))
	}
	return d.GetOrCreate(cls), nil
}

// hasUnit answers the dict-target disambiguation for map classes.
func (w *walker) hasUnit(cls reflect.Type) func(string) bool {
	if cls.Kind() != reflect.Map {
		return nil
	}
	r, err := w.registryFor(cls)
	if err != nil {
		return nil
	}
	return r.Has
}

func (w *walker) step(t task) (graph.Step[task, any], error) {
	if t.manifest == nil {
		return graph.Leaf[task, any](nil), nil
	}

	if t.spec.Kind() != spec.KindClass {
		pairs, err := t.spec.Decompose(t.manifest)
		if err != nil {
			return graph.Step[task, any]{}, err
		}
		children := make([]task, len(pairs))
		for i, p := range pairs {
			children[i] = task{spec: p.Spec, manifest: p.Manifest}
		}
		return graph.Node(t.spec.Compose, children), nil
	}

	cls := t.spec.GoType()
	if v, ok := spec.Direct(t.manifest, cls, w.hasUnit(cls)); ok {
		return graph.Leaf[task](v), nil
	}

	obj, err := spec.ParseObject(t.manifest)
	if err != nil {
		return graph.Step[task, any]{}, afberrors.With(err, "make", spec.QualifiedName(cls), "")
	}
	reg, err := w.registryFor(cls)
	if err != nil {
		return graph.Step[task, any]{}, err
	}
	unit, key, err := reg.lookup(obj.Key)
	if err != nil {
		return graph.Step[task, any]{}, afberrors.With(err, "make", reg.name(), key)
	}
	args, err := unit.MergeInputs(obj.Inputs)
	if err != nil {
		return graph.Step[task, any]{}, afberrors.With(err, "make", reg.name(), key)
	}

	sig := unit.Signature()
	names := make([]string, 0, len(args))
	children := make([]task, 0, len(args))
	for _, name := range sig.Names() {
		v, ok := args[name]
		if !ok {
			continue
		}
		p, _ := sig.Param(name)
		names = append(names, name)
		children = append(children, task{spec: p.Type, manifest: v})
	}

	fuse := func(values []any) (any, error) {
		realized := make(map[string]any, len(names))
		for i, name := range names {
			realized[name] = values[i]
		}
		out, err := unit.Invoke(realized)
		if err != nil {
			return nil, afberrors.With(err, "make", reg.name(), key)
		}
		return out, nil
	}
	return graph.Node(fuse, children), nil
}
