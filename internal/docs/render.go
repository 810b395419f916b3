package docs

import (
	"context"
	"reflect"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/zjrosen/afb/internal/cachemanager"
	afberrors "github.com/zjrosen/afb/internal/errors"
	"github.com/zjrosen/afb/internal/registry"
	"github.com/zjrosen/afb/internal/spec"
)

// noMarginStyle removes document margins.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

// RenderOptions configure terminal rendering.
type RenderOptions struct {
	Width int
	// Style is a glamour style name: "dark", "light", "notty" or "ascii".
	Style string
	// Profile limits colors. termenv.Ascii strips them.
	Profile termenv.Profile
	// NoCache renders every request afresh.
	NoCache bool
}

type pageRequest struct {
	class reflect.Type
	key   string
}

// Renderer renders class and unit pages of a Directory for the terminal.
// Rendered pages are cached until Invalidate.
type Renderer struct {
	dir   *registry.Directory
	term  *glamour.TermRenderer
	pages *cachemanager.ReadThrough[string, string, pageRequest]
}

// NewRenderer creates a Renderer over d.
func NewRenderer(d *registry.Directory, opts RenderOptions) (*Renderer, error) {
	if opts.Style == "" {
		opts.Style = "dark"
	}
	if opts.Width <= 0 {
		opts.Width = 80
	}
	term, err := glamour.NewTermRenderer(
		glamour.WithStylePath(opts.Style),
		glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)),
		glamour.WithWordWrap(opts.Width),
		glamour.WithColorProfile(opts.Profile),
	)
	if err != nil {
		return nil, err
	}

	r := &Renderer{dir: d, term: term}
	cache := cachemanager.NewMemory[string, string]("docs",
		cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	r.pages = cachemanager.NewReadThrough[string, string, pageRequest](cache, r.render, opts.NoCache)
	return r, nil
}

// Class renders the page of cls.
func (r *Renderer) Class(ctx context.Context, cls reflect.Type) (string, error) {
	return r.pages.Get(ctx, spec.QualifiedName(cls), pageRequest{class: cls}, 0)
}

// Unit renders the page of the unit under key of cls.
func (r *Renderer) Unit(ctx context.Context, cls reflect.Type, key string) (string, error) {
	return r.pages.Get(ctx, spec.QualifiedName(cls)+"#"+key, pageRequest{class: cls, key: key}, 0)
}

// Invalidate drops cached pages, e.g. after units were registered.
func (r *Renderer) Invalidate(ctx context.Context) {
	r.pages.Invalidate(ctx)
}

// Markdown returns the unrendered page of cls, or of its unit under key when
// key is not empty.
func Markdown(d *registry.Directory, cls reflect.Type, key string) (string, error) {
	reg, ok := d.Get(cls)
	if !ok {
		return "", afberrors.Newf(afberrors.ErrNotFound, "no registry for %s", spec.QualifiedName(cls))
	}
	pages := NewPages(reg, func(c reflect.Type) bool {
		_, ok := d.Get(c)
		return ok
	})
	if key == "" {
		return pages.Class(), nil
	}
	return pages.Unit(key)
}

func (r *Renderer) render(_ context.Context, req pageRequest) (string, error) {
	md, err := Markdown(r.dir, req.class, req.key)
	if err != nil {
		return "", err
	}
	return r.term.Render(md)
}
