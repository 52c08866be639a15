// internal/app/features/teams/teams.go
package teams

import (
	"context"
	"net/http"

	"github.com/dalemusser/leadhub/internal/app/features/shared"
	"github.com/dalemusser/leadhub/internal/app/policy/accesspolicy"
	teamstore "github.com/dalemusser/leadhub/internal/app/store/teams"
	"github.com/dalemusser/leadhub/internal/app/system/auth"
	"github.com/dalemusser/leadhub/internal/app/system/respond"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ServeList handles GET /teams.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "teams list")
	defer cancel()

	sub, ok := shared.Subject(ctx, w, r, h.Teams, h.Log)
	if !ok {
		return
	}
	list, err := h.Teams.List(ctx, sub)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if list == nil {
		list = []models.Team{}
	}
	respond.JSON(w, http.StatusOK, list)
}

func (h *Handler) visibleTeam(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.Team, bool) {
	sub, ok := shared.Subject(ctx, w, r, h.Teams, h.Log)
	if !ok {
		return nil, false
	}
	t, err := h.Teams.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return nil, false
	}
	if t == nil || !accesspolicy.CanSeeTeam(sub, *t) {
		respond.Problem(w, http.StatusNotFound, "not_found", "team not found")
		return nil, false
	}
	return t, true
}

// ServeGet handles GET /teams/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "team get")
	defer cancel()

	t, ok := h.visibleTeam(ctx, w, r)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, t)
}

// ServeMembers handles GET /teams/{id}/members.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "team members")
	defer cancel()

	t, ok := h.visibleTeam(ctx, w, r)
	if !ok {
		return
	}
	members, err := h.Teams.Members(ctx, t.ID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if members == nil {
		members = []models.User{}
	}
	respond.JSON(w, http.StatusOK, members)
}

// ServeStats handles GET /teams/{id}/stats.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "team stats")
	defer cancel()

	t, ok := h.visibleTeam(ctx, w, r)
	if !ok {
		return
	}
	st, err := h.Stats.ScanTeamStats(ctx, t.ID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, st)
}

// HandleAdd handles POST /teams {"name", "supervisor_id"}.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "team add")
	defer cancel()

	var in teamstore.NewTeam
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	id, err := h.Teams.Add(ctx, in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	actor, _ := auth.CurrentActor(r)
	h.Audit.TeamCreated(ctx, r, actor, id, in.Name)

	t, err := h.Teams.Get(ctx, id)
	if err != nil || t == nil {
		respond.JSON(w, http.StatusCreated, map[string]string{"id": id})
		return
	}
	respond.JSON(w, http.StatusCreated, t)
}

// HandleUpdate handles PATCH /teams/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "team update")
	defer cancel()

	id := chi.URLParam(r, "id")
	var partial map[string]any
	if err := respond.Decode(w, r, &partial); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.Teams.Update(ctx, id, partial); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	actor, _ := auth.CurrentActor(r)
	h.Audit.TeamUpdated(ctx, r, actor, id)

	t, err := h.Teams.Get(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, t)
}

// HandleDelete handles DELETE /teams/{id}. Members move to Unassigned.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "team delete")
	defer cancel()

	id := chi.URLParam(r, "id")
	moved, err := h.Teams.Delete(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.Log.Info("team deleted", zap.String("team_id", id), zap.Int("members_moved", moved))
	actor, _ := auth.CurrentActor(r)
	h.Audit.TeamDeleted(ctx, r, actor, id)
	respond.JSON(w, http.StatusOK, map[string]any{"deleted": id, "members_moved": moved})
}
