package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/arrcenter/internal/httpserver/deps"
	"github.com/MrSnakeDoc/arrcenter/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/arrcenter/internal/httpserver/mw"
)

func init() { Register(registerAPI) }

func registerAPI(r chi.Router, d deps.Deps) {
	r.Route("/api", func(api chi.Router) {
		api.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger), mw.EnforceHost(d.AllowedHosts, d.Logger))

		api.Get("/services", handlers.Services(d))
		api.Put("/settings/{service}", handlers.SaveSettings(d))

		api.Get("/view", handlers.Views(d))
		api.Get("/view/{service}", handlers.View(d))

		// Everything below sends probes.
		api.Group(func(probe chi.Router) {
			probe.Use(probeLimit(d))
			probe.Get("/resolve", handlers.ResolveAll(d))
			probe.Get("/resolve/{service}", handlers.Resolve(d))
			probe.Post("/view/{service}", handlers.StartView(d))
			probe.Post("/view/{service}/retry", handlers.RetryView(d))
		})
	})
}
