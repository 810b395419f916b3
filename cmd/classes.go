package cmd

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	afberrors "github.com/zjrosen/afb/internal/errors"
	"github.com/zjrosen/afb/internal/log"
	"github.com/zjrosen/afb/internal/registry"
	"github.com/zjrosen/afb/internal/spec"
	"github.com/zjrosen/afb/internal/sweep"
)

// classAliases are the short class names accepted on the command line.
var classAliases = map[string]reflect.Type{
	"bool":   reflect.TypeFor[bool](),
	"int":    reflect.TypeFor[int](),
	"int64":  reflect.TypeFor[int64](),
	"float":  reflect.TypeFor[float64](),
	"string": reflect.TypeFor[string](),
	"list":   reflect.TypeFor[[]any](),
	"dict":   reflect.TypeFor[map[string]any](),
	"values": sweep.Class,
}

// aliasNames lists the aliases in sorted order.
func aliasNames() []string {
	names := make([]string, 0, len(classAliases))
	for name := range classAliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// newDirectory builds the Directory served by every command: the alias
// classes with their builtin units, the enabled plugins and the configured
// default keys.
func newDirectory(c directoryOptions) (*registry.Directory, error) {
	d := registry.NewDirectory()
	for _, name := range aliasNames() {
		if name == "values" && !c.sweep {
			continue
		}
		d.GetOrCreate(classAliases[name])
	}
	if c.sweep {
		if err := sweep.Register(d, false); err != nil {
			return nil, fmt.Errorf("registering sweep units: %w", err)
		}
	}

	for class, key := range c.defaults {
		cls, ok := resolverFor(d)(class)
		if !ok {
			log.Warn(log.CatConfig, "Default for unknown class", "class", class, "key", key)
			continue
		}
		if err := d.GetOrCreate(cls).SetDefault(key); err != nil {
			return nil, fmt.Errorf("default for %s: %w", class, err)
		}
	}
	log.Debug(log.CatConfig, "Directory ready", "classes", len(d.Classes()))
	return d, nil
}

// directoryOptions is the part of the configuration newDirectory reads.
type directoryOptions struct {
	sweep    bool
	defaults map[string]string
}

// resolverFor maps an alias, a qualified class name or a short reflect
// spelling to a class of d.
func resolverFor(d *registry.Directory) func(string) (reflect.Type, bool) {
	return func(name string) (reflect.Type, bool) {
		if cls, ok := classAliases[strings.ToLower(name)]; ok {
			return cls, true
		}
		if cls, ok := d.ClassByName(name); ok {
			return cls, true
		}
		// viper lowercases map keys read from the config file.
		for _, cls := range d.Classes() {
			if strings.EqualFold(spec.QualifiedName(cls), name) || strings.EqualFold(cls.String(), name) {
				return cls, true
			}
		}
		return nil, false
	}
}

func resolveClass(d *registry.Directory, name string) (reflect.Type, error) {
	cls, ok := resolverFor(d)(name)
	if !ok {
		return nil, afberrors.New(afberrors.ErrNotFound,
			fmt.Sprintf("unknown class %q (aliases: %s)", name, strings.Join(aliasNames(), ", ")), name)
	}
	return cls, nil
}

// directory builds the Directory from the loaded configuration.
func directory() (*registry.Directory, error) {
	return newDirectory(directoryOptions{sweep: cfg.Plugins.Sweep, defaults: cfg.Defaults})
}
