// internal/app/features/backup/handler.go
package backup

import (
	backupstore "github.com/dalemusser/leadhub/internal/app/store/backup"
	"github.com/dalemusser/leadhub/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Handler serves backup download, restore, and archive endpoints.
type Handler struct {
	Backup *backupstore.Service
	Audit  *auditlog.Logger
	Log    *zap.Logger
}

// NewHandler constructs a backup Handler.
func NewHandler(svc *backupstore.Service, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Backup: svc,
		Audit:  audit,
		Log:    logger,
	}
}
