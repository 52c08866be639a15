// internal/app/features/settings/handler.go
package settings

import (
	settingsstore "github.com/dalemusser/leadhub/internal/app/store/settings"
	"github.com/dalemusser/leadhub/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Handler owns the taxonomy settings endpoints.
type Handler struct {
	Settings *settingsstore.Store
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

// NewHandler constructs a Handler bound to the settings repository.
func NewHandler(st *settingsstore.Store, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Settings: st,
		Audit:    audit,
		Log:      logger,
	}
}
