// Package templates renders storefront pages and htmx fragments. Pages are
// html/template files embedded at build time and exposed as templ components so
// handlers serve them through templ.Handler.
package templates

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/a-h/templ"

	"github.com/grindngainz15/fronted/internal/storefront/catalog"
	"github.com/grindngainz15/fronted/internal/storefront/format"
)

//go:embed layout/*.html pages/*.html static
var files embed.FS

// Renderer holds one parsed template set per page, each layered over the
// shared layout and partials.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every embedded page.
func New() (*Renderer, error) {
	return NewFS(files)
}

// MustNew is New for process start-up.
func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// NewFS parses layout/*.html and pages/*.html from fsys.
func NewFS(fsys fs.FS) (*Renderer, error) {
	base, err := template.New("base").Funcs(funcs).ParseFS(fsys, "layout/*.html")
	if err != nil {
		return nil, fmt.Errorf("templates: parse layout: %w", err)
	}
	entries, err := fs.Glob(fsys, "pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("templates: list pages: %w", err)
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(entries))}
	for _, entry := range entries {
		name := strings.TrimSuffix(path.Base(entry), ".html")
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("templates: clone for %s: %w", name, err)
		}
		page, err := clone.ParseFS(fsys, entry)
		if err != nil {
			return nil, fmt.Errorf("templates: parse %s: %w", name, err)
		}
		r.pages[name] = page
	}
	return r, nil
}

// Static serves the stylesheet and other assets under /static/.
func Static() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Page renders the named page inside the full layout.
func (r *Renderer) Page(name string, data any) templ.Component {
	return r.block(name, "layout", data)
}

// Fragment renders one named block of a page for an htmx swap.
func (r *Renderer) Fragment(name, block string, data any) templ.Component {
	return r.block(name, block, data)
}

// Has reports whether a page exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

func (r *Renderer) block(name, block string, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		t, ok := r.pages[name]
		if !ok {
			return fmt.Errorf("templates: unknown page %q", name)
		}
		return t.ExecuteTemplate(w, block, data)
	})
}

var funcs = template.FuncMap{
	"status":   format.Status,
	"tone":     format.StatusTone,
	"date":     format.Date,
	"markdown": catalog.RenderDescription,
	"add":      func(a, b int) int { return a + b },
	"sub":      func(a, b int) int { return a - b },
	"seq": func(n int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = i + 1
		}
		return out
	},
	"stars": func(full int) []bool {
		out := make([]bool, 5)
		for i := range out {
			out[i] = i < full
		}
		return out
	},
	"field": func(errs map[string]string, name string) string {
		return errs[name]
	},
}
