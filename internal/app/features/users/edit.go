// internal/app/features/users/edit.go
package users

import (
	"net/http"
	"sort"
	"strings"

	userstore "github.com/dalemusser/leadhub/internal/app/store/users"
	"github.com/dalemusser/leadhub/internal/app/system/auth"
	"github.com/dalemusser/leadhub/internal/app/system/respond"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HandleAdd handles POST /users.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "user add")
	defer cancel()

	var in userstore.NewUser
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	id, err := h.Users.Add(ctx, in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	actor, _ := auth.CurrentActor(r)
	h.Audit.UserCreated(ctx, r, actor, id, in.Role)

	u, err := h.Users.Get(ctx, id)
	if err != nil || u == nil {
		respond.JSON(w, http.StatusCreated, map[string]string{"id": id})
		return
	}
	respond.JSON(w, http.StatusCreated, u)
}

// HandleUpdate handles PATCH /users/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "user update")
	defer cancel()

	id := chi.URLParam(r, "id")
	var partial map[string]any
	if err := respond.Decode(w, r, &partial); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.Users.Update(ctx, id, partial); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	fields := make([]string, 0, len(partial))
	for k := range partial {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	actor, _ := auth.CurrentActor(r)
	h.Audit.UserUpdated(ctx, r, actor, id, fields)

	u, err := h.Users.Get(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

type deleteResult struct {
	Deleted    string `json:"deleted"`
	Successor  string `json:"successor"`
	Reassigned int    `json:"reassigned"`
}

// HandleDelete handles DELETE /users/{id}?successor={id}. Everything the
// user owns moves to the successor in the same atomic write.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "user delete")
	defer cancel()

	id := chi.URLParam(r, "id")
	successor := strings.TrimSpace(r.URL.Query().Get("successor"))
	actor, _ := auth.CurrentActor(r)
	if id == actor.ID {
		respond.Problem(w, http.StatusBadRequest, "validation", "you cannot delete your own account")
		return
	}

	n, err := h.Users.DeleteSafe(ctx, id, successor)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.Log.Info("user deleted", zap.String("user_id", id), zap.String("successor", successor), zap.Int("reassigned", n))
	h.Audit.UserDeleted(ctx, r, actor, id, successor, n)
	respond.JSON(w, http.StatusOK, deleteResult{Deleted: id, Successor: successor, Reassigned: n})
}
