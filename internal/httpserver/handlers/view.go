package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/arrcenter/internal/httpserver/deps"
)

// Views returns the display state of every service.
func Views(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Display.States())
	}
}

// View returns the display state of one service.
func View(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := serviceParam(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, d.Display.State(id))
	}
}

// StartView starts a resolution without waiting for it and returns the
// loading state. Pollers follow up with GET on the same path.
func StartView(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := serviceParam(w, r)
		if !ok {
			return
		}
		d.Display.Open(id)
		writeJSON(w, http.StatusAccepted, d.Display.State(id))
	}
}

// RetryView is the manual retry of the error state.
func RetryView(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := serviceParam(w, r)
		if !ok {
			return
		}
		d.Display.Retry(id)
		writeJSON(w, http.StatusAccepted, d.Display.State(id))
	}
}
