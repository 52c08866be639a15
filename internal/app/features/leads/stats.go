// internal/app/features/leads/stats.go
package leads

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/leadhub/internal/app/features/shared"
	"github.com/dalemusser/leadhub/internal/app/store/queries/leadstats"
	"github.com/dalemusser/leadhub/internal/app/system/respond"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
)

const defaultLeaderboardSize = 10

// ServeSummary handles GET /leads/stats/summary.
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "leads summary")
	defer cancel()

	sub, ok := shared.Subject(ctx, w, r, h.Teams, h.Log)
	if !ok {
		return
	}
	sum, err := h.Stats.ScanSummary(ctx, sub)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, sum)
}

// ServeLeaderboard handles GET /leads/stats/leaderboard?n=10.
func (h *Handler) ServeLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "leads leaderboard")
	defer cancel()

	n := defaultLeaderboardSize
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			respond.Problem(w, http.StatusBadRequest, "validation", "n must be a non-negative integer")
			return
		}
		n = parsed
	}

	sub, ok := shared.Subject(ctx, w, r, h.Teams, h.Log)
	if !ok {
		return
	}
	rows, err := h.Stats.ScanLeaderboard(ctx, sub, n)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if rows == nil {
		rows = []leadstats.LeaderboardRow{}
	}
	respond.JSON(w, http.StatusOK, rows)
}
