// Package web renders the server-side HTML pages.  Templates are embedded
// and parsed once; each page is executed inside layout.html.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/iliyamo/devocional/internal/auth"
	"github.com/iliyamo/devocional/internal/calendar"
)

//go:embed templates/*.html
var files embed.FS

// Page is the data every template receives.  Data carries the
// page-specific values.
type Page struct {
	Title     string
	User      auth.Principal
	CSRFToken string
	Flash     string
	Error     string
	Fields    map[string]string
	Data      any
}

// mdRenderer escapes raw HTML in the source (WithUnsafe is not set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// Markdown renders devotional text to HTML.
func Markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

var funcs = template.FuncMap{
	"markdown":  Markdown,
	"monthName": calendar.MonthName,
	"humanTime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return humanize.Time(t)
	},
	"seq": func(n int) []int {
		s := make([]int, n)
		for i := range s {
			s[i] = i + 1
		}
		return s
	},
	"has": func(days []int, d int) bool {
		for _, x := range days {
			if x == d {
				return true
			}
		}
		return false
	},
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"isAdmin":  func(p auth.Principal) bool { return p.Kind == auth.Admin },
	"loggedIn": func(p auth.Principal) bool { return p.Kind != auth.Unauthenticated },
	"percent": func(part, total int) int {
		if total <= 0 {
			return 0
		}
		return part * 100 / total
	},
}

// Renderer implements echo.Renderer over the embedded templates.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page template together with the layout.
func NewRenderer() (*Renderer, error) {
	names, err := fs.Glob(files, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, path := range names {
		name := strings.TrimPrefix(path, "templates/")
		if name == "layout.html" {
			continue
		}
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(files, "templates/layout.html", path)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render executes the page template name with data.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.Execute(w, data)
}
