package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/arrcenter/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready  bool   `json:"ready"`
	Source string `json:"source,omitempty"`
}

// Readyz reports ready once a settings snapshot was loaded from the backend.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.MemoryIndex.Loaded() {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Ready: false})
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{
			Ready:  true,
			Source: d.MemoryIndex.Source(),
		})
	}
}
