// internal/app/features/settings/routes.go
package settings

import (
	"github.com/dalemusser/leadhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the settings endpoints. Every signed-in actor can read
// the taxonomies; only managers change them.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireActor)

	r.Get("/", h.ServeSettings)
	r.Get("/options/{key}", h.ServeOptions)

	r.Group(func(mr chi.Router) {
		mr.Use(auth.RequireManager)
		mr.Patch("/", h.HandleSettings)
		mr.Post("/reload", h.HandleReload)
		mr.Post("/options/{key}", h.HandleAddOption)
		mr.Delete("/options/{key}", h.HandleRemoveOption)
	})
	return r
}
