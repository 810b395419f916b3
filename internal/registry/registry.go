package registry

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"weak"

	afberrors "github.com/zjrosen/afb/internal/errors"
	"github.com/zjrosen/afb/internal/factory"
	"github.com/zjrosen/afb/internal/spec"
)

// ReservedPrefix marks builtin unit keys.
const ReservedPrefix = "afb/"

// DefaultSeparator joins a merge root and a unit key.
const DefaultSeparator = "/"

// Registry errors
var (
	ErrNilUnit     = errors.New("construction unit cannot be nil")
	ErrNilRegistry = errors.New("registry cannot be nil")
	ErrEmptyKey    = errors.New("unit key cannot be empty")
	ErrNoDefault   = errors.New("no key given and no default key set")
)

// Registry holds the construction units of one target class.
type Registry struct {
	class reflect.Type

	mu         sync.Mutex
	builtin    sync.Map // string -> *factory.Factory
	user       sync.Map // string -> *factory.Factory
	defaultKey atomic.Pointer[string]
	directory  atomic.Pointer[weak.Pointer[Directory]]
}

// New creates an unbound Registry for class, seeded with the builtin units
// that apply to it.
func New(class reflect.Type) *Registry {
	if class == nil {
		panic("registry: nil class")
	}
	r := &Registry{class: class}
	installBuiltins(r)
	return r
}

// NewFor creates an unbound Registry for T.
func NewFor[T any]() *Registry {
	return New(reflect.TypeFor[T]())
}

// Class returns the target class.
func (r *Registry) Class() reflect.Type {
	return r.class
}

func (r *Registry) name() string {
	return spec.QualifiedName(r.class)
}

// Register adds unit under key. An existing user unit under key is replaced
// only when override is set.
func (r *Registry) Register(key string, unit *factory.Factory, override bool) error {
	if unit == nil {
		return ErrNilUnit
	}
	if key == "" {
		return ErrEmptyKey
	}
	if !unit.Class().AssignableTo(r.class) {
		return afberrors.With(afberrors.Newf(afberrors.ErrTypeMismatch,
			"unit produces %s", spec.ShortName(unit.Class())), "register", r.name(), key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.user.Load(key); exists && !override {
		return afberrors.With(afberrors.New(afberrors.ErrKeyConflict,
			"key already registered", key), "register", r.name(), "")
	}
	r.user.Store(key, unit)
	return nil
}

// AddFactory builds a unit for the Registry's class from fn and registers it.
func (r *Registry) AddFactory(key string, fn any, sig spec.Signature, override bool, opts ...factory.Option) error {
	unit, err := factory.New(r.class, fn, sig, opts...)
	if err != nil {
		return afberrors.With(err, "register", r.name(), key)
	}
	return r.Register(key, unit, override)
}

// registerBuiltin stores unit under ReservedPrefix+key.
func (r *Registry) registerBuiltin(key string, unit *factory.Factory) {
	r.builtin.Store(ReservedPrefix+key, unit)
}

// Get returns the unit registered under key, or under the default key when
// key is empty. Keys under ReservedPrefix resolve only from the builtin
// partition.
func (r *Registry) Get(key string) (*factory.Factory, error) {
	unit, _, err := r.lookup(key)
	return unit, err
}

func (r *Registry) lookup(key string) (*factory.Factory, string, error) {
	if key == "" {
		d, ok := r.Default()
		if !ok {
			return nil, "", afberrors.With(afberrors.Wrap(afberrors.ErrNotFound, ErrNoDefault, ""),
				"get", r.name(), "")
		}
		key = d
	}
	part := &r.user
	if strings.HasPrefix(key, ReservedPrefix) {
		part = &r.builtin
	}
	v, ok := part.Load(key)
	if !ok {
		return nil, key, afberrors.With(afberrors.New(afberrors.ErrNotFound, "no such unit"),
			"get", r.name(), key)
	}
	return v.(*factory.Factory), key, nil
}

// Has reports whether key resolves to a unit.
func (r *Registry) Has(key string) bool {
	_, _, err := r.lookup(key)
	return err == nil
}

// Keys returns the builtin then the user keys, each sorted.
func (r *Registry) Keys() []string {
	return append(r.BuiltinKeys(), r.UserKeys()...)
}

// BuiltinKeys returns the sorted builtin keys.
func (r *Registry) BuiltinKeys() []string {
	return sortedKeys(&r.builtin)
}

// UserKeys returns the sorted user keys.
func (r *Registry) UserKeys() []string {
	return sortedKeys(&r.user)
}

func sortedKeys(m *sync.Map) []string {
	var keys []string
	m.Range(func(k, _ any) bool {
		keys = append(keys, k.(string))
		return true
	})
	sort.Strings(keys)
	return keys
}

// Default returns the default key.
func (r *Registry) Default() (string, bool) {
	p := r.defaultKey.Load()
	if p == nil {
		return "", false
	}
	return *p, true
}

// SetDefault makes key the default. key must name an existing unit.
func (r *Registry) SetDefault(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if key == "" {
		return ErrEmptyKey
	}
	if _, _, err := r.lookup(key); err != nil {
		return err
	}
	r.defaultKey.Store(&key)
	return nil
}

// ClearDefault unsets the default key.
func (r *Registry) ClearDefault() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultKey.Store(nil)
}

// MergeOptions controls how units of another Registry are copied in.
type MergeOptions struct {
	// Root prefixes merged keys as Root+Separator+key. Empty keeps keys as is.
	Root string
	// Separator defaults to DefaultSeparator.
	Separator string
	// Override replaces colliding units.
	Override bool
	// IgnoreCollision keeps the existing unit on collision.
	IgnoreCollision bool
}

func (o MergeOptions) key(k string) string {
	if o.Root == "" {
		return k
	}
	sep := o.Separator
	if sep == "" {
		sep = DefaultSeparator
	}
	return o.Root + sep + k
}

// Merge copies the user units of other into r. other's class must be
// assignable to r's class. Collisions are computed for the whole batch first;
// without Override or IgnoreCollision a single KeyConflict lists all of them
// and nothing is copied.
func (r *Registry) Merge(other *Registry, opts MergeOptions) error {
	if other == nil {
		return ErrNilRegistry
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	plan, err := r.planMerge(other, opts)
	if err != nil {
		return err
	}
	r.applyMerge(plan)
	return nil
}

// MergeAll merges several registries keyed by root. All of them are checked
// before any is merged.
func (r *Registry) MergeAll(others map[string]*Registry, opts MergeOptions) error {
	roots := make([]string, 0, len(others))
	for root := range others {
		roots = append(roots, root)
	}
	sort.Strings(roots)

	r.mu.Lock()
	defer r.mu.Unlock()

	var plans [][]mergeItem
	seen := make(map[string]string)
	var conflicts []string
	for _, root := range roots {
		o := opts
		o.Root = root
		plan, err := r.planMerge(others[root], o)
		if err != nil {
			return err
		}
		for _, item := range plan {
			if prev, dup := seen[item.key]; dup && !opts.Override && !opts.IgnoreCollision {
				conflicts = append(conflicts, fmt.Sprintf("%s (from %q and %q)", item.key, prev, root))
			}
			seen[item.key] = root
		}
		plans = append(plans, plan)
	}
	if len(conflicts) > 0 {
		return afberrors.With(afberrors.New(afberrors.ErrKeyConflict,
			"merged keys collide with each other", conflicts...), "merge", r.name(), "")
	}
	for _, plan := range plans {
		r.applyMerge(plan)
	}
	return nil
}

type mergeItem struct {
	key  string
	unit *factory.Factory
}

// planMerge computes the units to copy. Callers hold r.mu.
func (r *Registry) planMerge(other *Registry, opts MergeOptions) ([]mergeItem, error) {
	if other == nil {
		return nil, ErrNilRegistry
	}
	if !other.class.AssignableTo(r.class) {
		return nil, afberrors.With(afberrors.Newf(afberrors.ErrTypeMismatch,
			"cannot merge units of %s", spec.QualifiedName(other.class)), "merge", r.name(), "")
	}

	var (
		plan       []mergeItem
		collisions []string
	)
	for _, k := range other.UserKeys() {
		v, ok := other.user.Load(k)
		if !ok {
			continue
		}
		key := opts.key(k)
		if _, exists := r.user.Load(key); exists {
			switch {
			case opts.Override:
			case opts.IgnoreCollision:
				continue
			default:
				collisions = append(collisions, key)
				continue
			}
		}
		plan = append(plan, mergeItem{key: key, unit: v.(*factory.Factory)})
	}
	if len(collisions) > 0 {
		return nil, afberrors.With(afberrors.New(afberrors.ErrKeyConflict,
			"keys already registered", collisions...), "merge", r.name(), "")
	}
	return plan, nil
}

func (r *Registry) applyMerge(plan []mergeItem) {
	for _, item := range plan {
		r.user.Store(item.key, item.unit)
	}
}

// Directory returns the bound Directory, or nil when unbound or collected.
func (r *Registry) Directory() *Directory {
	p := r.directory.Load()
	if p == nil {
		return nil
	}
	return p.Value()
}

// bind points r at d. A nil d unbinds.
func (r *Registry) bind(d *Directory) {
	if d == nil {
		r.directory.Store(nil)
		return
	}
	wp := weak.Make(d)
	r.directory.Store(&wp)
}

// unbindFrom unbinds r only if it is currently bound to d.
func (r *Registry) unbindFrom(d *Directory) {
	p := r.directory.Load()
	if p != nil && p.Value() == d {
		r.directory.CompareAndSwap(p, nil)
	}
}

// Make builds an object with the unit under key, or the default unit when key
// is empty.
func (r *Registry) Make(key string, inputs map[string]any) (any, error) {
	return realize(r, spec.Class(r.class), spec.NewObjectSpec(key, inputs))
}

// Realize builds an object of the Registry's class from a manifest.
func (r *Registry) Realize(manifest any) (any, error) {
	return realize(r, spec.Class(r.class), manifest)
}
