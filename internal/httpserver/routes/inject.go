package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/arrcenter/internal/httpserver/deps"
	"github.com/MrSnakeDoc/arrcenter/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/arrcenter/internal/httpserver/mw"
)

func init() { Register(registerInject) }

func registerInject(r chi.Router, d deps.Deps) {
	r.With(mw.EnforceHost(d.AllowedHosts, d.Logger)).Get("/inject/{service}.js", handlers.Inject(d))
}
