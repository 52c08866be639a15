// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/leadhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit log routes (typically at "/api/audit").
// Access is restricted to managers.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireManager)
	r.Get("/", h.ServeList)
	return r
}
