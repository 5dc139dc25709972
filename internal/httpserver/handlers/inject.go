package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/arrcenter/internal/httpserver/deps"
	"github.com/MrSnakeDoc/arrcenter/internal/inject"
	"github.com/MrSnakeDoc/arrcenter/internal/logger"
)

// Inject serves the script the shell evaluates after a dashboard page loads.
func Inject(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := serviceParam(w, r)
		if !ok {
			return
		}

		js, err := inject.Snippet(id)
		if err != nil {
			d.Logger.Error("failed to build injection snippet",
				logger.String("service", id.Slug()),
				logger.Error(err))
			writeError(w, http.StatusInternalServerError, "snippet unavailable")
			return
		}

		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		if ua := inject.ProfileFor(id).UserAgent; ua != "" {
			w.Header().Set("X-Arrcenter-User-Agent", ua)
		}
		_, _ = w.Write([]byte(js))
	}
}
