// internal/app/features/leads/handler.go
package leads

import (
	leadstore "github.com/dalemusser/leadhub/internal/app/store/leads"
	"github.com/dalemusser/leadhub/internal/app/store/queries/leadstats"
	teamstore "github.com/dalemusser/leadhub/internal/app/store/teams"
	"github.com/dalemusser/leadhub/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Handler serves the lead endpoints. Every read and write is scoped to
// what the signed-in actor may see.
type Handler struct {
	Leads *leadstore.Store
	Teams *teamstore.Store
	Stats *leadstats.Scanner
	Audit *auditlog.Logger
	Log   *zap.Logger
}

// NewHandler constructs a leads Handler.
func NewHandler(leads *leadstore.Store, teams *teamstore.Store, stats *leadstats.Scanner, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Leads: leads,
		Teams: teams,
		Stats: stats,
		Audit: audit,
		Log:   logger,
	}
}
