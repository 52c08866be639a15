// internal/app/features/leads/edit.go
package leads

import (
	"context"
	"net/http"

	"github.com/dalemusser/leadhub/internal/app/system/auth"
	"github.com/dalemusser/leadhub/internal/app/system/respond"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleAdd handles POST /leads. The body is the lead payload; ownership
// is taken from the session.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "lead add")
	defer cancel()

	actor, _ := auth.CurrentActor(r)
	var payload map[string]any
	if err := respond.Decode(w, r, &payload); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	id, err := h.Leads.Add(ctx, payload, actor)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.Log.Info("lead added", zap.String("lead_id", id), zap.String("actor", actor.ID))
	respond.JSON(w, http.StatusCreated, map[string]string{"id": id})
}

// HandleUpdate handles PATCH /leads/{id} with a partial document.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "lead update")
	defer cancel()

	l, _, ok := h.visibleLead(ctx, w, r)
	if !ok {
		return
	}
	var partial map[string]any
	if err := respond.Decode(w, r, &partial); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.Leads.Update(ctx, l.ID, partial); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.writeLead(ctx, w, l.ID)
}

type statusInput struct {
	Status string `json:"status"`
}

type auraInput struct {
	Aura string `json:"aura"`
}

type noteInput struct {
	Text string `json:"text"`
}

// HandleStatus handles POST /leads/{id}/status {"status": "..."}.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	var in statusInput
	h.timelineChange(w, r, &in, "lead status", func(ctx context.Context, id string) error {
		actor, _ := auth.CurrentActor(r)
		return h.Leads.ChangeStatus(ctx, id, in.Status, actor)
	})
}

// HandleAura handles POST /leads/{id}/aura {"aura": "Hot"}.
func (h *Handler) HandleAura(w http.ResponseWriter, r *http.Request) {
	var in auraInput
	h.timelineChange(w, r, &in, "lead aura", func(ctx context.Context, id string) error {
		actor, _ := auth.CurrentActor(r)
		return h.Leads.ChangeAura(ctx, id, in.Aura, actor)
	})
}

// HandleNote handles POST /leads/{id}/notes {"text": "..."}.
func (h *Handler) HandleNote(w http.ResponseWriter, r *http.Request) {
	var in noteInput
	h.timelineChange(w, r, &in, "lead note", func(ctx context.Context, id string) error {
		actor, _ := auth.CurrentActor(r)
		return h.Leads.AddNote(ctx, id, in.Text, actor)
	})
}

// timelineChange checks visibility, decodes the body into in and runs
// apply, then returns the updated lead.
func (h *Handler) timelineChange(w http.ResponseWriter, r *http.Request, in any, op string, apply func(ctx context.Context, id string) error) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, op)
	defer cancel()

	l, _, ok := h.visibleLead(ctx, w, r)
	if !ok {
		return
	}
	if err := respond.Decode(w, r, in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := apply(ctx, l.ID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.writeLead(ctx, w, l.ID)
}

func (h *Handler) writeLead(ctx context.Context, w http.ResponseWriter, id string) {
	l, err := h.Leads.Get(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if l == nil {
		respond.Problem(w, http.StatusNotFound, "not_found", "lead not found")
		return
	}
	respond.JSON(w, http.StatusOK, l)
}
