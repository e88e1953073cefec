// Package httpapi wires asset, auth and sync endpoints into a chi router.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/daybook/internal/logging"
)

// NewRouter assembles the HTTP surface. The sync handler is mounted as-is
// and performs the websocket upgrade itself; assets and sync sit behind
// bearer auth, the auth endpoints do not.
func NewRouter(assets *AssetHandler, auth *AuthHandler, sync http.Handler, secretKey []byte, logger logging.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", auth.Register)
		r.Post("/salt", auth.Salt)
		r.Post("/login", auth.Login)
		r.Post("/refresh", auth.Refresh)
	})

	r.Route("/api/assets", func(r chi.Router) {
		r.Use(RequireAuth(secretKey))
		r.Post("/upload", assets.Upload)
		r.Get("/entry/{entryId}", assets.ListByEntry)
		r.Get("/{id}", assets.Download)
		r.Get("/{id}/metadata", assets.Metadata)
		r.Delete("/{id}", assets.Delete)
	})

	r.Route("/api/sync", func(r chi.Router) {
		r.Use(RequireAuth(secretKey))
		r.Handle("/", sync)
	})

	return r
}
