// internal/app/features/leads/routes.go
package leads

import (
	"github.com/dalemusser/leadhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the lead endpoints (typically under "/api/leads").
// Any signed-in actor may use them; results are role-scoped.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireActor)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleAdd)
	r.Get("/export.csv", h.ServeExport)
	r.Post("/import", h.HandleImport)
	r.Get("/stats/summary", h.ServeSummary)
	r.Get("/stats/leaderboard", h.ServeLeaderboard)

	r.Route("/{id}", func(lr chi.Router) {
		lr.Get("/", h.ServeGet)
		lr.Patch("/", h.HandleUpdate)
		lr.Post("/status", h.HandleStatus)
		lr.Post("/aura", h.HandleAura)
		lr.Post("/notes", h.HandleNote)
	})
	return r
}
