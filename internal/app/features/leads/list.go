// internal/app/features/leads/list.go
package leads

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/leadhub/internal/app/features/shared"
	"github.com/dalemusser/leadhub/internal/app/policy/accesspolicy"
	leadstore "github.com/dalemusser/leadhub/internal/app/store/leads"
	"github.com/dalemusser/leadhub/internal/app/system/auth"
	"github.com/dalemusser/leadhub/internal/app/system/paging"
	"github.com/dalemusser/leadhub/internal/app/system/respond"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// filtersFrom reads list filters from the query string.
func filtersFrom(r *http.Request) leadstore.Filters {
	q := r.URL.Query()
	get := func(k string) string { return strings.TrimSpace(q.Get(k)) }
	return leadstore.Filters{
		Search:    get("search"),
		Status:    get("status"),
		LeadType:  get("lead_type"),
		Aura:      get("aura"),
		Course:    get("course"),
		Route:     get("route"),
		Team:      get("team"),
		Executive: get("executive"),
	}
}

// ServeList handles GET /leads?cursor=&limit=&search=&status=...
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "leads list")
	defer cancel()

	sub, ok := shared.Subject(ctx, w, r, h.Teams, h.Log)
	if !ok {
		return
	}
	page, err := h.Leads.List(ctx, sub, r.URL.Query().Get("cursor"), paging.ParseLimit(r), filtersFrom(r))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if page.Data == nil {
		page.Data = []models.Lead{}
	}
	respond.JSON(w, http.StatusOK, page)
}

// visibleLead loads the {id} lead. Leads the subject may not see are
// reported as missing.
func (h *Handler) visibleLead(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.Lead, accesspolicy.Subject, bool) {
	sub, ok := shared.Subject(ctx, w, r, h.Teams, h.Log)
	if !ok {
		return nil, sub, false
	}
	l, err := h.Leads.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return nil, sub, false
	}
	if l == nil || !accesspolicy.CanSeeLead(sub, *l) {
		respond.Problem(w, http.StatusNotFound, "not_found", "lead not found")
		return nil, sub, false
	}
	return l, sub, true
}

// ServeGet handles GET /leads/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "lead get")
	defer cancel()

	l, _, ok := h.visibleLead(ctx, w, r)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, l)
}

// ServeExport handles GET /leads/export.csv?fields=name,phone&<filters>.
func (h *Handler) ServeExport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "leads export")
	defer cancel()

	sub, ok := shared.Subject(ctx, w, r, h.Teams, h.Log)
	if !ok {
		return
	}
	var fields []string
	for _, f := range strings.Split(r.URL.Query().Get("fields"), ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}

	out := &csvResponse{w: w}
	n, err := h.Leads.ExportCSV(ctx, out, sub, filtersFrom(r), fields)
	if err != nil {
		if !out.started {
			respond.Error(w, h.Log, err)
			return
		}
		h.Log.Error("lead export failed mid-stream", zap.Int("rows", n), zap.Error(err))
		return
	}
	actor, _ := auth.CurrentActor(r)
	h.Audit.LeadsExported(ctx, r, actor, n)
}

// csvResponse sets the download headers on the first write so errors
// raised before any output can still be sent as JSON.
type csvResponse struct {
	w       http.ResponseWriter
	started bool
}

func (c *csvResponse) Write(p []byte) (int, error) {
	if !c.started {
		c.started = true
		c.w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		c.w.Header().Set("Content-Disposition", `attachment; filename="leads.csv"`)
	}
	return c.w.Write(p)
}
