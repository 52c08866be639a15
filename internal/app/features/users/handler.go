// internal/app/features/users/handler.go
package users

import (
	"github.com/dalemusser/leadhub/internal/app/store/queries/leadstats"
	teamstore "github.com/dalemusser/leadhub/internal/app/store/teams"
	userstore "github.com/dalemusser/leadhub/internal/app/store/users"
	"github.com/dalemusser/leadhub/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Handler serves the staff directory.
type Handler struct {
	Users *userstore.Store
	Teams *teamstore.Store
	Stats *leadstats.Scanner
	Audit *auditlog.Logger
	Log   *zap.Logger
}

// NewHandler constructs a users Handler.
func NewHandler(users *userstore.Store, teams *teamstore.Store, stats *leadstats.Scanner, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users: users,
		Teams: teams,
		Stats: stats,
		Audit: audit,
		Log:   logger,
	}
}
