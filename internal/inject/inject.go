// Package inject builds the cosmetic assets the embedding shell evaluates
// inside each dashboard once a page has finished loading.
package inject

import (
	"bytes"
	_ "embed"
	"fmt"
	"strconv"
	"text/template"

	"github.com/MrSnakeDoc/arrcenter/internal/domain"
)

// DesktopUserAgent makes dashboards that sniff mobile browsers render their desktop layout.
const DesktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36"

// ViewportJS widens the layout viewport to a desktop width.
const ViewportJS = "document.querySelector('meta[name=viewport]')?.setAttribute('content', 'width=1024');"

//go:embed assets/dark.css
var darkCSS string

//go:embed assets/snippet.js.tmpl
var snippetSource string

var snippetTmpl = template.Must(template.New("snippet").Parse(snippetSource))

// Profile describes how the shell should present one dashboard.
type Profile struct {
	Service        domain.ServiceIdentity `json:"service"`
	UserAgent      string                 `json:"user_agent,omitempty"`
	WideViewport   bool                   `json:"wide_viewport"`
	ForceViewport  bool                   `json:"force_viewport"`
	ExternalHosts  []string               `json:"external_hosts"`
	StylesheetSize int                    `json:"stylesheet_bytes"`
}

// Links to these hosts are handed to the platform instead of the embedded view.
var externalHosts = []string{"youtube.com", "youtu.be"}

// ProfileFor returns the presentation profile of id.
func ProfileFor(id domain.ServiceIdentity) Profile {
	p := Profile{
		Service:        id,
		ExternalHosts:  externalHosts,
		StylesheetSize: len(darkCSS),
	}
	switch id {
	case domain.SABnzbd:
		p.UserAgent = DesktopUserAgent
		p.WideViewport = true
		p.ForceViewport = true
	case domain.StorageConsole:
		p.ForceViewport = true
	}
	return p
}

// CSS returns the dark theme overrides shared by every dashboard.
func CSS() string {
	return darkCSS
}

// Snippet returns a self-contained script that installs the stylesheet once
// and, for dashboards that need it, forces the desktop viewport.
func Snippet(id domain.ServiceIdentity) (string, error) {
	if !id.Valid() {
		return "", domain.ErrUnknownService
	}

	p := ProfileFor(id)
	var buf bytes.Buffer
	err := snippetTmpl.Execute(&buf, struct {
		Service       string
		CSS           string
		ForceViewport bool
		ViewportJS    string
	}{
		Service:       id.Slug(),
		CSS:           strconv.Quote(darkCSS),
		ForceViewport: p.ForceViewport,
		ViewportJS:    ViewportJS,
	})
	if err != nil {
		return "", fmt.Errorf("render snippet for %s: %w", id.Slug(), err)
	}
	return buf.String(), nil
}
