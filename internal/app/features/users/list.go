// internal/app/features/users/list.go
package users

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/leadhub/internal/app/features/shared"
	"github.com/dalemusser/leadhub/internal/app/policy/accesspolicy"
	userstore "github.com/dalemusser/leadhub/internal/app/store/users"
	"github.com/dalemusser/leadhub/internal/app/system/respond"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// ServeList handles GET /users?search=&role=&team=&status=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "users list")
	defer cancel()

	sub, ok := shared.Subject(ctx, w, r, h.Teams, h.Log)
	if !ok {
		return
	}
	q := r.URL.Query()
	f := userstore.Filter{
		Search: strings.TrimSpace(q.Get("search")),
		Team:   strings.TrimSpace(q.Get("team")),
		Status: strings.TrimSpace(q.Get("status")),
	}
	if raw := strings.TrimSpace(q.Get("role")); raw != "" {
		role, ok := models.ParseRole(raw)
		if !ok {
			respond.Problem(w, http.StatusBadRequest, "validation", "unknown role")
			return
		}
		f.Role = role
	}

	list, err := h.Users.List(ctx, sub, f)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if list == nil {
		list = []models.User{}
	}
	respond.JSON(w, http.StatusOK, list)
}

// visibleUser loads the {id} user, reporting users the subject may not
// see as missing.
func (h *Handler) visibleUser(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	sub, ok := shared.Subject(ctx, w, r, h.Teams, h.Log)
	if !ok {
		return nil, false
	}
	u, err := h.Users.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return nil, false
	}
	if u == nil || !accesspolicy.CanSeeUser(sub, *u) {
		respond.Problem(w, http.StatusNotFound, "not_found", "user not found")
		return nil, false
	}
	return u, true
}

// ServeGet handles GET /users/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "user get")
	defer cancel()

	u, ok := h.visibleUser(ctx, w, r)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

// ServeStats handles GET /users/{id}/stats.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "user stats")
	defer cancel()

	u, ok := h.visibleUser(ctx, w, r)
	if !ok {
		return
	}
	st, err := h.Stats.ScanUserStats(ctx, u.ID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, st)
}
