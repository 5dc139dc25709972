package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/arrcenter/internal/domain"
	"github.com/MrSnakeDoc/arrcenter/internal/httpserver/deps"
	"github.com/MrSnakeDoc/arrcenter/internal/logger"
)

// Resolve runs a fresh resolution for one service. The outcome class is in
// the body; the status code is 200 whenever the resolution itself ran.
func Resolve(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := serviceParam(w, r)
		if !ok {
			return
		}

		result := d.Resolver.Resolve(r.Context(), id, d.MemoryIndex.Pair(id))
		if r.Context().Err() != nil {
			d.Logger.Debug("client went away, discarding resolution",
				logger.String("service", id.Slug()),
				logger.String("request_id", result.ID))
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// ResolveAll resolves every service concurrently against one snapshot.
func ResolveAll(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := d.Resolver.ResolveAll(r.Context(), d.MemoryIndex.Snapshot())
		if r.Context().Err() != nil {
			return
		}

		ordered := make([]domain.ResolutionResult, 0, len(results))
		for _, id := range domain.AllServices() {
			if res, ok := results[id]; ok {
				ordered = append(ordered, res)
			}
		}
		writeJSON(w, http.StatusOK, ordered)
	}
}
