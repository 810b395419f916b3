// Package docs renders construction-unit documentation as markdown: one page
// per class listing its units and one page per unit describing its
// parameters. Pages can be exported to a filesystem or rendered for a
// terminal.
package docs

import (
	"fmt"
	"path"
	"reflect"
	"regexp"
	"strings"

	"github.com/zjrosen/afb/internal/registry"
	"github.com/zjrosen/afb/internal/spec"
)

// ClassPage is the file name of a class page inside its directory.
const ClassPage = "README.md"

var unsafePath = regexp.MustCompile(`[^A-Za-z0-9._/-]+`)

// ClassDir returns the directory of cls relative to the export root. Named
// types live under their import path, the others under "builtin".
func ClassDir(cls reflect.Type) string {
	name := strings.TrimLeft(spec.QualifiedName(cls), "*")
	for cls.Kind() == reflect.Pointer && cls.Name() == "" {
		cls = cls.Elem()
	}
	if cls.PkgPath() == "" {
		return "builtin/" + strings.Trim(unsafePath.ReplaceAllString(name, "_"), "_")
	}
	return path.Join(cls.PkgPath(), cls.Name())
}

// UnitPath returns the page of unit key relative to its class directory.
// Keys containing "/" nest.
func UnitPath(key string) string {
	return path.Join("units", key+".md")
}

// Pages builds markdown for the units of one Registry. Links to classes
// resolve only for classes known to linked.
type Pages struct {
	reg    *registry.Registry
	linked func(reflect.Type) bool
}

// NewPages documents r. A nil linked links every class.
func NewPages(r *registry.Registry, linked func(reflect.Type) bool) *Pages {
	if linked == nil {
		linked = func(reflect.Type) bool { return true }
	}
	return &Pages{reg: r, linked: linked}
}

// Class returns the class page.
func (p *Pages) Class() string {
	cls := p.reg.Class()
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", spec.ShortName(cls))
	fmt.Fprintf(&b, "`%s`\n\n", spec.QualifiedName(cls))
	if key, ok := p.reg.Default(); ok {
		fmt.Fprintf(&b, "Default unit: [`%s`](%s)\n\n", key, "./"+UnitPath(key))
	}

	b.WriteString("## Units\n\n")
	p.list(&b, p.reg.UserKeys())
	b.WriteString("\n## Builtin\n\n")
	p.list(&b, p.reg.BuiltinKeys())
	return b.String()
}

func (p *Pages) list(b *strings.Builder, keys []string) {
	if len(keys) == 0 {
		b.WriteString("None.\n")
		return
	}
	for _, key := range keys {
		unit, err := p.reg.Get(key)
		if err != nil {
			continue
		}
		fmt.Fprintf(b, "  - [`%s`](./%s): %s\n", key, UnitPath(key), unit.ShortDescription())
	}
}

// Unit returns the page of the unit under key.
func (p *Pages) Unit(key string) (string, error) {
	unit, err := p.reg.Get(key)
	if err != nil {
		return "", err
	}
	cls := p.reg.Class()

	var b strings.Builder
	fmt.Fprintf(&b, "# %s - `%s`\n\n", spec.ShortName(cls), key)
	b.WriteString("## Description\n\n")
	if short := unit.ShortDescription(); short != "" {
		fmt.Fprintf(&b, "**%s**\n\n", short)
	}
	if long := unit.LongDescription(); long != "" {
		b.WriteString(long)
		b.WriteString("\n\n")
	}

	b.WriteString("## Arguments\n\n")
	sig := unit.Signature()
	if sig.Len() == 0 {
		b.WriteString("None.\n")
		return b.String(), nil
	}
	root := relativeRoot(path.Join(ClassDir(cls), UnitPath(key)))
	defaults := unit.Defaults()
	for _, name := range sig.Names() {
		param, _ := sig.Param(name)
		p.argument(&b, root, name, param, !sig.IsRequired(name), defaults)
	}
	return b.String(), nil
}

func (p *Pages) argument(b *strings.Builder, root, name string, param *spec.ParameterSpec, optional bool, defaults map[string]any) {
	prefix := ""
	if optional {
		prefix = "(optional) "
	}
	fmt.Fprintf(b, "- %s`%s`:\n", prefix, name)
	fmt.Fprintf(b, "  - Type: %s\n", spec.Render(param.Type, p.link(root, spec.ShortName)))
	fmt.Fprintf(b, "  - Full Type: %s\n", spec.Render(param.Type, p.link(root, spec.QualifiedName)))
	if v, ok := defaults[name]; ok {
		fmt.Fprintf(b, "  - Default: `%v`\n", v)
	}
	fmt.Fprintf(b, "  - Description: %s\n", param.Description)
}

func (p *Pages) link(root string, name func(reflect.Type) string) func(reflect.Type) string {
	return func(cls reflect.Type) string {
		if !p.linked(cls) {
			return "`" + name(cls) + "`"
		}
		return fmt.Sprintf("[`%s`](%s)", name(cls), path.Join(root, ClassDir(cls), ClassPage))
	}
}

// relativeRoot returns the "../" chain leading from the directory of rel
// back to the export root.
func relativeRoot(rel string) string {
	depth := strings.Count(rel, "/")
	if depth == 0 {
		return "."
	}
	return strings.TrimSuffix(strings.Repeat("../", depth), "/")
}
