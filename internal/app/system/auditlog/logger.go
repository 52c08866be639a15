// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/leadhub/internal/app/system/docstore"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"go.uber.org/zap"
)

// Event categories
const (
	CategoryAdmin = "admin"
	CategoryLeads = "leads"
)

// Event types
const (
	EventUserCreated     = "user_created"
	EventUserUpdated     = "user_updated"
	EventUserDeleted     = "user_deleted"
	EventTeamCreated     = "team_created"
	EventTeamUpdated     = "team_updated"
	EventTeamDeleted     = "team_deleted"
	EventSettingsChanged = "settings_changed"
	EventBackupCreated   = "backup_created"
	EventBackupRestored  = "backup_restored"
	EventLeadsImported   = "leads_imported"
	EventLeadsExported   = "leads_exported"
)

// Event is one audit record.
type Event struct {
	ID            string            `bson:"_id,omitempty" json:"id"`
	Timestamp     time.Time         `bson:"timestamp" json:"timestamp"`
	Category      string            `bson:"category" json:"category"`
	EventType     string            `bson:"event_type" json:"event_type"`
	ActorID       string            `bson:"actor_id,omitempty" json:"actor_id,omitempty"`
	TargetID      string            `bson:"target_id,omitempty" json:"target_id,omitempty"`
	IP            string            `bson:"ip,omitempty" json:"ip,omitempty"`
	Success       bool              `bson:"success" json:"success"`
	FailureReason string            `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`
	Details       map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// Config holds audit logging configuration.
type Config struct {
	// Admin controls logging for admin events (user/team CRUD, settings,
	// backup/restore). Values: "all" (store + zap), "db" (store only),
	// "log" (zap only), "off" (disabled)
	Admin string
	// Leads controls logging for bulk lead events (import/export).
	// Same values as Admin.
	Leads string
}

// Logger records audit events to the document store and/or zap.
type Logger struct {
	store  docstore.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store docstore.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

func (l *Logger) logToZap(event Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.TargetID != "" {
		fields = append(fields, zap.String("target_id", event.TargetID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case CategoryAdmin:
		setting = l.config.Admin
	case CategoryLeads:
		setting = l.config.Leads
	}
	if setting == "" {
		setting = "all"
	}
	if setting == "off" {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if (setting == "all" || setting == "db") && l.store != nil {
		data, err := docstore.Encode(event)
		if err == nil {
			_, err = l.store.Put(ctx, models.CollAudit, "", data, false)
		}
		if err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// Recent returns up to limit stored events, newest first.
func (l *Logger) Recent(ctx context.Context, limit int) ([]Event, error) {
	if l == nil || l.store == nil {
		return nil, nil
	}
	docs, err := l.store.List(ctx, models.CollAudit, docstore.Query{
		OrderBy: "timestamp",
		Desc:    true,
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[Event](docs)
}

func (l *Logger) admin(ctx context.Context, r *http.Request, actor models.Actor, eventType, targetID string, details map[string]string) {
	l.Log(ctx, Event{
		Category:  CategoryAdmin,
		EventType: eventType,
		ActorID:   actor.ID,
		TargetID:  targetID,
		IP:        getClientIP(r),
		Success:   true,
		Details:   details,
	})
}

// --- Admin Events ---

// UserCreated logs creation of a user.
func (l *Logger) UserCreated(ctx context.Context, r *http.Request, actor models.Actor, userID, role string) {
	l.admin(ctx, r, actor, EventUserCreated, userID, map[string]string{"role": role})
}

// UserUpdated logs an update to a user; fields lists the keys written.
func (l *Logger) UserUpdated(ctx context.Context, r *http.Request, actor models.Actor, userID string, fields []string) {
	d := map[string]string{}
	for i, f := range fields {
		d["field_"+strconv.Itoa(i)] = f
	}
	l.admin(ctx, r, actor, EventUserUpdated, userID, d)
}

// UserDeleted logs a safe delete and how many records moved to the successor.
func (l *Logger) UserDeleted(ctx context.Context, r *http.Request, actor models.Actor, userID, successorID string, reassigned int) {
	l.admin(ctx, r, actor, EventUserDeleted, userID, map[string]string{
		"successor_id": successorID,
		"reassigned":   strconv.Itoa(reassigned),
	})
}

// TeamCreated logs creation of a team.
func (l *Logger) TeamCreated(ctx context.Context, r *http.Request, actor models.Actor, teamID, name string) {
	l.admin(ctx, r, actor, EventTeamCreated, teamID, map[string]string{"name": name})
}

// TeamUpdated logs an update to a team.
func (l *Logger) TeamUpdated(ctx context.Context, r *http.Request, actor models.Actor, teamID string) {
	l.admin(ctx, r, actor, EventTeamUpdated, teamID, nil)
}

// TeamDeleted logs deletion of a team.
func (l *Logger) TeamDeleted(ctx context.Context, r *http.Request, actor models.Actor, teamID string) {
	l.admin(ctx, r, actor, EventTeamDeleted, teamID, nil)
}

// SettingsChanged logs a settings write.
func (l *Logger) SettingsChanged(ctx context.Context, r *http.Request, actor models.Actor, keys []string) {
	d := map[string]string{}
	for i, k := range keys {
		d["key_"+strconv.Itoa(i)] = k
	}
	l.admin(ctx, r, actor, EventSettingsChanged, models.SettingsID, d)
}

// BackupCreated logs a backup export.
func (l *Logger) BackupCreated(ctx context.Context, r *http.Request, actor models.Actor, records int, archive string) {
	l.admin(ctx, r, actor, EventBackupCreated, archive, map[string]string{"records": strconv.Itoa(records)})
}

// BackupRestored logs a restore attempt. When err is non-nil the event is
// recorded as a failure with the number of records already written.
func (l *Logger) BackupRestored(ctx context.Context, r *http.Request, actor models.Actor, written int, err error) {
	e := Event{
		Category:  CategoryAdmin,
		EventType: EventBackupRestored,
		ActorID:   actor.ID,
		IP:        getClientIP(r),
		Success:   err == nil,
		Details:   map[string]string{"records_written": strconv.Itoa(written)},
	}
	if err != nil {
		e.FailureReason = err.Error()
	}
	l.Log(ctx, e)
}

// --- Lead Events ---

// LeadsImported logs a bulk import.
func (l *Logger) LeadsImported(ctx context.Context, r *http.Request, actor models.Actor, count int) {
	l.Log(ctx, Event{
		Category:  CategoryLeads,
		EventType: EventLeadsImported,
		ActorID:   actor.ID,
		IP:        getClientIP(r),
		Success:   true,
		Details:   map[string]string{"count": strconv.Itoa(count)},
	})
}

// LeadsExported logs a CSV export.
func (l *Logger) LeadsExported(ctx context.Context, r *http.Request, actor models.Actor, count int) {
	l.Log(ctx, Event{
		Category:  CategoryLeads,
		EventType: EventLeadsExported,
		ActorID:   actor.ID,
		IP:        getClientIP(r),
		Success:   true,
		Details:   map[string]string{"count": strconv.Itoa(count)},
	})
}
