package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Public, no auth required.
	r.Get("/health", g.handleHealth())
	if g.metrics != nil {
		r.Handle("/metrics", g.metrics.Handler())
	}

	// Everything else requires the bearer token.
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(g.config.BearerToken))
		r.Get("/status", g.handleStatus())
		r.Handle("/mcp", g.mcp)
		r.Handle("/mcp/*", g.mcp)
	})

	return r
}
