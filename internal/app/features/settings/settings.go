// internal/app/features/settings/settings.go
package settings

import (
	"net/http"
	"sort"
	"strings"

	settingsstore "github.com/dalemusser/leadhub/internal/app/store/settings"
	"github.com/dalemusser/leadhub/internal/app/system/auth"
	"github.com/dalemusser/leadhub/internal/app/system/respond"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// ServeSettings handles GET /settings.
func (h *Handler) ServeSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "settings get")
	defer cancel()

	st, err := h.Settings.Get(ctx)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, st)
}

// HandleSettings handles PATCH /settings. Top-level keys in the body
// replace the stored ones; other keys are left alone.
func (h *Handler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "settings set")
	defer cancel()

	var partial map[string]any
	if err := respond.Decode(w, r, &partial); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.Settings.Set(ctx, partial); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	keys := make([]string, 0, len(partial))
	for k := range partial {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	actor, _ := auth.CurrentActor(r)
	h.Audit.SettingsChanged(ctx, r, actor, keys)

	respond.JSON(w, http.StatusOK, h.Settings.Snapshot())
}

// HandleReload handles POST /settings/reload, refreshing the cached
// snapshot from the store.
func (h *Handler) HandleReload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "settings reload")
	defer cancel()

	if err := h.Settings.Reload(ctx); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, h.Settings.Snapshot())
}

// ServeOptions handles GET /settings/options/{key}: the values of a
// [{value}] list.
func (h *Handler) ServeOptions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "settings options")
	defer cancel()

	st, err := h.Settings.Get(ctx)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	vals := settingsstore.Options(st, chi.URLParam(r, "key"))
	if vals == nil {
		vals = []string{}
	}
	respond.JSON(w, http.StatusOK, vals)
}

type optionInput struct {
	Value string `json:"value"`
}

// HandleAddOption handles POST /settings/options/{key} {"value": "..."}.
func (h *Handler) HandleAddOption(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "settings add option")
	defer cancel()

	key := chi.URLParam(r, "key")
	var in optionInput
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.Settings.AddOption(ctx, key, in.Value); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	actor, _ := auth.CurrentActor(r)
	h.Audit.SettingsChanged(ctx, r, actor, []string{key})
	respond.JSON(w, http.StatusOK, settingsstore.Options(h.Settings.Snapshot(), key))
}

// HandleRemoveOption handles DELETE /settings/options/{key}?value=...
func (h *Handler) HandleRemoveOption(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "settings remove option")
	defer cancel()

	key := chi.URLParam(r, "key")
	value := strings.TrimSpace(r.URL.Query().Get("value"))
	removed, err := h.Settings.RemoveOption(ctx, key, value)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if !removed {
		respond.Problem(w, http.StatusNotFound, "not_found", "option not found")
		return
	}
	actor, _ := auth.CurrentActor(r)
	h.Audit.SettingsChanged(ctx, r, actor, []string{key})
	vals := settingsstore.Options(h.Settings.Snapshot(), key)
	if vals == nil {
		vals = []string{}
	}
	respond.JSON(w, http.StatusOK, vals)
}
