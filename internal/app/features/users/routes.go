// internal/app/features/users/routes.go
package users

import (
	"github.com/dalemusser/leadhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the user endpoints (typically under "/api/users").
//
// Reads are open to any signed-in actor and scoped by role; writes are
// restricted to managers.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireActor)

	r.Get("/", h.ServeList)
	r.With(auth.RequireManager).Post("/", h.HandleAdd)

	r.Route("/{id}", func(ur chi.Router) {
		ur.Get("/", h.ServeGet)
		ur.Get("/stats", h.ServeStats)
		ur.With(auth.RequireManager).Patch("/", h.HandleUpdate)
		ur.With(auth.RequireManager).Delete("/", h.HandleDelete)
	})
	return r
}
