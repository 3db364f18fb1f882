package websvc

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/teacherlink/webfront/internal/domain"
)

//go:embed templates
var templatesFS embed.FS

//nolint:gochecknoglobals
var templateFuncs = template.FuncMap{
	"items":  items,
	"fields": fields,
}

// Page is a page template parsed on first use.
type Page struct {
	name   string
	once   sync.Once
	loaded atomic.Bool
	tmpl   *template.Template
	err    error
}

func newPage(name string) *Page {
	return &Page{name: name}
}

// Name returns the template file of the page.
func (p *Page) Name() string {
	return p.name
}

// Loaded reports whether the page has been parsed.
func (p *Page) Loaded() bool {
	return p.loaded.Load()
}

// Load parses the page together with the layout. Only the first call parses;
// its result, error included, is returned from then on.
func (p *Page) Load() (*template.Template, error) {
	p.once.Do(func() {
		p.tmpl, p.err = template.New(p.name).Funcs(templateFuncs).ParseFS(
			templatesFS, "templates/layout.html", "templates/"+p.name,
		)
		if p.err != nil {
			p.err = fmt.Errorf("parse page %s: %w", p.name, p.err)
		}

		p.loaded.Store(true)
	})

	return p.tmpl, p.err
}

// Execute renders the page with data. A failing template yields no output.
func (p *Page) Execute(data PageData) ([]byte, error) {
	tmpl, err := p.Load()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, fmt.Errorf("execute page %s: %w", p.name, err)
	}

	return buf.Bytes(), nil
}

// PageData is what every page template is executed with.
type PageData struct {
	Title   string
	Path    string
	User    *domain.User
	Menu    []MenuItem
	Data    any
	Error   string
	Notice  string
	Next    string
	ChatURL string
	Protect bool
}

// items turns a backend document into a list for display.
func items(doc any) []any {
	switch v := doc.(type) {
	case nil:
		return nil
	case []any:
		return v
	case map[string]any:
		for _, key := range []string{"items", "data", "results"} {
			if list, ok := v[key].([]any); ok {
				return list
			}
		}

		return []any{v}
	default:
		return []any{v}
	}
}

type field struct {
	Key   string
	Value any
}

// fields lists the members of an object in key order.
func fields(item any) []field {
	object, ok := item.(map[string]any)
	if !ok {
		return []field{{Value: item}}
	}

	keys := make([]string, 0, len(object))
	for key := range object {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	out := make([]field, 0, len(keys))
	for _, key := range keys {
		out = append(out, field{Key: key, Value: object[key]})
	}

	return out
}
