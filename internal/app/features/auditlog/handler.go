// internal/app/features/auditlog/handler.go
package auditlog

import (
	"github.com/dalemusser/leadhub/internal/app/system/auditlog"
	"go.uber.org/zap"
)

type Handler struct {
	Audit *auditlog.Logger
	Log   *zap.Logger
}

// NewHandler constructs an Audit Log feature handler.
func NewHandler(audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Audit: audit,
		Log:   logger,
	}
}
