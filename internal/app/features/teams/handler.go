// internal/app/features/teams/handler.go
package teams

import (
	"github.com/dalemusser/leadhub/internal/app/store/queries/leadstats"
	teamstore "github.com/dalemusser/leadhub/internal/app/store/teams"
	"github.com/dalemusser/leadhub/internal/app/system/auditlog"
	"go.uber.org/zap"
)

type Handler struct {
	Teams *teamstore.Store
	Stats *leadstats.Scanner
	Audit *auditlog.Logger
	Log   *zap.Logger
}

// NewHandler constructs a teams Handler.
func NewHandler(teams *teamstore.Store, stats *leadstats.Scanner, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Teams: teams,
		Stats: stats,
		Audit: audit,
		Log:   logger,
	}
}
