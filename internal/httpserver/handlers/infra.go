package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/arrcenter/internal/httpserver/deps"
)

type componentStatus struct {
	OK                 bool   `json:"ok"`
	Backend            string `json:"backend,omitempty"`
	ServicesConfigured *int   `json:"services_configured,omitempty"`
	LastReload         string `json:"last_reload,omitempty"`
	ProbeTimeout       string `json:"probe_timeout,omitempty"`
	Impact             string `json:"impact,omitempty"`
	Error              string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// pinger is implemented by the sqlite and redis settings backends.
type pinger interface {
	Ping(ctx context.Context) error
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		configured := d.MemoryIndex.Count()
		lastReload := d.MemoryIndex.GetLastReload()
		lastReloadStr := "never"
		if !lastReload.IsZero() {
			lastReloadStr = lastReload.Format("2006-01-02 15:04:05")
		}

		components := map[string]componentStatus{
			"index": {
				OK:                 d.MemoryIndex.Loaded(),
				Backend:            d.MemoryIndex.Source(),
				ServicesConfigured: &configured,
				LastReload:         lastReloadStr,
			},
			"settings": checkSettings(r.Context(), d),
			"resolver": {
				OK:           true,
				ProbeTimeout: d.ProbeTimeout.String(),
			},
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	if idx, exists := components["index"]; exists && !idx.OK {
		return "critical" // nothing loaded yet, every resolution reports not_configured
	}

	// Backend down: resolutions still run on the last snapshot, writes fail.
	if settings, exists := components["settings"]; exists && !settings.OK {
		return "degraded"
	}

	return "ok"
}

func checkSettings(ctx context.Context, d deps.Deps) componentStatus {
	if d.Store == nil {
		return componentStatus{
			OK:     false,
			Impact: "settings-read-only",
			Error:  "store not initialized",
		}
	}

	status := componentStatus{OK: true, Backend: d.Store.Name()}

	p, ok := d.Store.(pinger)
	if !ok {
		return status
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		status.OK = false
		status.Impact = "settings-read-only"
		status.Error = err.Error()
	}
	return status
}
