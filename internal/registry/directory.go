package registry

import (
	"errors"
	"reflect"
	"sort"
	"sync"

	afberrors "github.com/zjrosen/afb/internal/errors"
	"github.com/zjrosen/afb/internal/factory"
	"github.com/zjrosen/afb/internal/spec"
)

// Directory holds one Registry per target class.
type Directory struct {
	mu         sync.Mutex
	registries sync.Map // reflect.Type -> *Registry
}

// NewDirectory creates an empty Directory.
func NewDirectory() *Directory {
	return &Directory{}
}

// Classes returns the registered classes sorted by qualified name.
func (d *Directory) Classes() []reflect.Type {
	var out []reflect.Type
	d.registries.Range(func(k, _ any) bool {
		out = append(out, k.(reflect.Type))
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		return spec.QualifiedName(out[i]) < spec.QualifiedName(out[j])
	})
	return out
}

// ClassByName finds a registered class by qualified name or by its short
// reflect spelling.
func (d *Directory) ClassByName(name string) (reflect.Type, bool) {
	for _, cls := range d.Classes() {
		if spec.QualifiedName(cls) == name || cls.String() == name {
			return cls, true
		}
	}
	return nil, false
}

// Get returns the Registry for cls.
func (d *Directory) Get(cls reflect.Type) (*Registry, bool) {
	v, ok := d.registries.Load(cls)
	if !ok {
		return nil, false
	}
	return v.(*Registry), true
}

// GetOrCreate returns the Registry for cls, creating and binding one on first
// use.
func (d *Directory) GetOrCreate(cls reflect.Type) *Registry {
	if r, ok := d.Get(cls); ok {
		return r
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if r, ok := d.Get(cls); ok {
		return r
	}
	r := New(cls)
	r.bind(d)
	d.registries.Store(cls, r)
	return r
}

// Register adds r as the Registry for its class. An incumbent is replaced,
// and unbound, only when override is set. r is detached from any previous
// Directory.
func (d *Directory) Register(r *Registry, override bool) error {
	if r == nil {
		return ErrNilRegistry
	}
	prev := r.Directory()

	d.mu.Lock()
	cur, exists := d.Get(r.class)
	switch {
	case exists && cur == r:
		d.mu.Unlock()
		return nil
	case exists && !override:
		d.mu.Unlock()
		return afberrors.With(afberrors.New(afberrors.ErrKeyConflict,
			"class already has a registry", r.name()), "register", "", "")
	case exists:
		cur.unbindFrom(d)
	}
	r.bind(d)
	d.registries.Store(r.class, r)
	d.mu.Unlock()

	if prev != nil && prev != d {
		prev.release(r)
	}
	return nil
}

// RegisterAll registers several registries. The batch is checked as a whole
// first, so a conflict leaves the Directory untouched.
func (d *Directory) RegisterAll(regs []*Registry, override bool) error {
	var conflicts []string
	batch := make(map[reflect.Type]*Registry, len(regs))
	for _, r := range regs {
		if r == nil {
			return ErrNilRegistry
		}
		if other, dup := batch[r.class]; dup && other != r {
			conflicts = append(conflicts, r.name())
			continue
		}
		batch[r.class] = r
		if cur, ok := d.Get(r.class); ok && cur != r && !override {
			conflicts = append(conflicts, r.name())
		}
	}
	if len(conflicts) > 0 {
		sort.Strings(conflicts)
		return afberrors.With(afberrors.New(afberrors.ErrKeyConflict,
			"classes already have a registry", conflicts...), "register", "", "")
	}
	for _, r := range regs {
		if err := d.Register(r, override); err != nil {
			return err
		}
	}
	return nil
}

// release drops r if it is still the Registry for its class.
func (d *Directory) release(r *Registry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cur, ok := d.Get(r.class); ok && cur == r {
		d.registries.Delete(r.class)
	}
}

// Merge merges every Registry of other into the local Registry of the same
// class. Failures of individual classes are joined.
func (d *Directory) Merge(other *Directory, opts MergeOptions) error {
	if other == nil {
		return nil
	}
	var errs []error
	for _, cls := range other.Classes() {
		src, ok := other.Get(cls)
		if !ok {
			continue
		}
		if err := d.GetOrCreate(cls).Merge(src, opts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AddFactory registers a unit for cls built from fn.
func (d *Directory) AddFactory(cls reflect.Type, key string, fn any, sig spec.Signature, override bool, opts ...factory.Option) error {
	return d.GetOrCreate(cls).AddFactory(key, fn, sig, override, opts...)
}

// Make builds an object of class cls with the unit under key, or the
// Registry's default unit when key is empty.
func (d *Directory) Make(cls reflect.Type, key string, inputs map[string]any) (any, error) {
	return d.GetOrCreate(cls).Make(key, inputs)
}

// Realize builds an object of class cls from a full manifest, such as the
// single-key map of a config file.
func (d *Directory) Realize(cls reflect.Type, manifest any) (any, error) {
	return d.GetOrCreate(cls).Realize(manifest)
}

// MakeAs is Make with the result asserted to T.
func MakeAs[T any](d *Directory, key string, inputs map[string]any) (T, error) {
	var zero T
	out, err := d.Make(reflect.TypeFor[T](), key, inputs)
	if err != nil || out == nil {
		return zero, err
	}
	return out.(T), nil
}
