// internal/app/features/teams/routes.go
package teams

import (
	"github.com/dalemusser/leadhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the team endpoints (typically under "/api/teams").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireActor)

	r.Get("/", h.ServeList)
	r.With(auth.RequireManager).Post("/", h.HandleAdd)

	r.Route("/{id}", func(tr chi.Router) {
		tr.Get("/", h.ServeGet)
		tr.Get("/members", h.ServeMembers)
		tr.Get("/stats", h.ServeStats)
		tr.With(auth.RequireManager).Patch("/", h.HandleUpdate)
		tr.With(auth.RequireManager).Delete("/", h.HandleDelete)
	})
	return r
}
