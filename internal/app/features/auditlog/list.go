// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"

	"github.com/dalemusser/leadhub/internal/app/system/apperr"
	"github.com/dalemusser/leadhub/internal/app/system/auditlog"
	"github.com/dalemusser/leadhub/internal/app/system/paging"
	"github.com/dalemusser/leadhub/internal/app/system/respond"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
)

const pageSize = 50

// ServeList handles GET /audit?limit=N: the most recent stored events.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Audit.Recent(ctx, paging.Size(paging.ParseLimit(r), pageSize))
	if err != nil {
		respond.Error(w, h.Log, apperr.Store("audit.Recent", err))
		return
	}
	if events == nil {
		events = []auditlog.Event{}
	}
	respond.JSON(w, http.StatusOK, events)
}
