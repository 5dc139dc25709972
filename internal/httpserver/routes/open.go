package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/arrcenter/internal/httpserver/deps"
	"github.com/MrSnakeDoc/arrcenter/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/arrcenter/internal/httpserver/mw"
)

func init() { Register(registerOpen) }

func registerOpen(r chi.Router, d deps.Deps) {
	r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger), mw.EnforceHost(d.AllowedHosts, d.Logger), probeLimit(d)).Get("/open/{service}", handlers.Open(d))
}
