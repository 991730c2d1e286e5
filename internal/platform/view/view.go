// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package view renders the portal's HTML pages.

Templates are embedded into the binary. Every page template is parsed together
with the shared layout, so a page only defines its "content" block:

	{{define "content"}} ... {{end}}

Rendering goes through a buffer first so a template failure never leaves a
half-written page on the wire.
*/
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/taibuivan/alumniportal/internal/backend"
	"github.com/taibuivan/alumniportal/internal/platform/ctxutil"
	"github.com/taibuivan/alumniportal/internal/session"
	"github.com/taibuivan/alumniportal/pkg/pointer"
)

//go:embed templates/*.html
var files embed.FS

const (
	layoutFile = "templates/layout.html"
	// layoutName is the name ParseFS gives the layout; pages execute through it.
	layoutName = "layout.html"
)

// Page is the data every template receives.
type Page struct {
	Title   string
	Path    string
	User    *backend.User
	Flashes []session.Flash

	// Form echoes submitted values back into a re-rendered form.
	Form map[string]string
	// Errors maps form fields to their validation messages.
	Errors map[string]string

	Data any
}

// Field returns the echoed value of a form field.
func (p Page) Field(name string) string {
	return p.Form[name]
}

// Error returns the validation message of a form field.
func (p Page) Error(name string) string {
	return p.Errors[name]
}

// Renderer holds one parsed template set per page.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every embedded page against the layout.
func New() (*Renderer, error) {
	entries, err := fs.Glob(files, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("view: list templates: %w", err)
	}

	renderer := &Renderer{pages: make(map[string]*template.Template, len(entries))}
	for _, entry := range entries {
		if entry == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(entry), ".html")

		page, err := template.New(layoutName).Funcs(funcs).ParseFS(files, layoutFile, entry)
		if err != nil {
			return nil, fmt.Errorf("view: parse %s: %w", name, err)
		}
		renderer.pages[name] = page
	}

	return renderer, nil
}

// Has reports whether a page template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Render writes the named page with the given status.
func (r *Renderer) Render(writer http.ResponseWriter, request *http.Request, status int, name string, page Page) {
	ctx := request.Context()

	tmpl, ok := r.pages[name]
	if !ok {
		ctxutil.GetLogger(ctx).ErrorContext(ctx, "view_unknown_page", slog.String("page", name))
		http.Error(writer, "An unexpected error occurred.", http.StatusInternalServerError)
		return
	}

	if page.Path == "" {
		page.Path = request.URL.Path
	}

	var buffer bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buffer, layoutName, page); err != nil {
		ctxutil.GetLogger(ctx).ErrorContext(ctx, "view_render_failed",
			slog.String("page", name),
			slog.Any("error", err),
		)
		http.Error(writer, "An unexpected error occurred.", http.StatusInternalServerError)
		return
	}

	writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	writer.WriteHeader(status)
	_, _ = buffer.WriteTo(writer)
}

// Waiting serves the neutral page shown while a visitor's session is still
// being validated. The caller sets the refresh headers.
func (r *Renderer) Waiting() http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		r.Render(writer, request, http.StatusOK, "waiting", Page{Title: "Loading"})
	})
}

// # Template Functions

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("Jan 2, 2006")
	},
	"str": func(value *string) string {
		return pointer.Val(value)
	},
	"year": func(value *int) string {
		if value == nil {
			return ""
		}
		return fmt.Sprint(*value)
	},
	"excerpt": func(text string, limit int) string {
		runes := []rune(text)
		if len(runes) <= limit {
			return text
		}
		return strings.TrimSpace(string(runes[:limit])) + "…"
	},
	"initial": func(name string) string {
		for _, r := range name {
			return strings.ToUpper(string(r))
		}
		return "?"
	},
	"active": func(current, prefix string) bool {
		if prefix == "/dashboard" {
			return current == prefix
		}
		return current == prefix || strings.HasPrefix(current, prefix+"/")
	},
}
