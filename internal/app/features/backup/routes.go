// internal/app/features/backup/routes.go
package backup

import (
	"github.com/dalemusser/leadhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the backup endpoints. All of them require a manager.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireManager)

	r.Get("/snapshot", h.ServeSnapshot)
	r.Post("/restore", h.HandleRestore)

	r.Get("/archives", h.ServeArchives)
	r.Post("/archives", h.HandleArchive)
	r.Post("/archives/{name}/restore", h.HandleRestoreArchive)
	return r
}
