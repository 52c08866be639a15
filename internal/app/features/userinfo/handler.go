// internal/app/features/userinfo/handler.go
package userinfo

import (
	"net/http"

	"github.com/dalemusser/leadhub/internal/app/system/auth"
	"github.com/dalemusser/leadhub/internal/app/system/respond"
)

// Handler serves the signed-in actor for the current session.
type Handler struct{}

// NewHandler creates a new userinfo handler.
func NewHandler() *Handler {
	return &Handler{}
}

type userInfo struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	ID              string `json:"id"`
	Name            string `json:"name"`
	Role            string `json:"role"`
	TeamID          string `json:"team_id"`
}

// ServeUserInfo returns the session's actor. Anonymous requests get
// isAuthenticated=false rather than 401.
func (h *Handler) ServeUserInfo(w http.ResponseWriter, r *http.Request) {
	a, ok := auth.CurrentActor(r)
	if !ok {
		respond.JSON(w, http.StatusOK, userInfo{})
		return
	}
	respond.JSON(w, http.StatusOK, userInfo{
		IsAuthenticated: true,
		ID:              a.ID,
		Name:            a.Name,
		Role:            string(a.Role),
		TeamID:          a.TeamID,
	})
}
