// Package views renders the HTML pages of the display surface.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Templates holds the parsed HTML pages.
type Templates struct {
	templates *template.Template
}

// ErrorPage is the data of error.html.
type ErrorPage struct {
	Title    string
	Service  string
	Reason   string
	Message  string
	RetryURL string
	Attempts []AttemptRow
	// RefreshSeconds adds an automatic reload when > 0 (resolution still running).
	RefreshSeconds int
}

// AttemptRow is one probe line on the error page.
type AttemptRow struct {
	Slot   string
	URL    string
	Status string
}

// NewTemplates parses all embedded templates.
func NewTemplates() (*Templates, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Templates{templates: tmpl}, nil
}

// Render writes the named template with the given status code.
// The page is rendered to a buffer first so a template failure never
// leaves a half-written response behind.
func (t *Templates) Render(w http.ResponseWriter, status int, name string, data interface{}) error {
	tmpl := t.templates.Lookup(name)
	if tmpl == nil {
		return fmt.Errorf("template %q not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to execute template %q: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
