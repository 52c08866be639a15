// internal/app/store/leads/timeline.go
package leadstore

import (
	"context"
	"strings"

	"github.com/dalemusser/leadhub/internal/app/system/apperr"
	"github.com/dalemusser/leadhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
)

// ChangeStatus sets the lead's status and appends a status event, in one
// atomic batch.
func (s *Store) ChangeStatus(ctx context.Context, id, status string, actor models.Actor) error {
	const op = "leads.ChangeStatus"
	status = strings.TrimSpace(status)
	if status == "" {
		return apperr.Validationf(op, "status is required")
	}
	return s.changeWithEvent(ctx, op, id, bson.M{models.LeadFieldStatus: status}, actor, models.EventStatus, "Status -> "+status)
}

// ChangeAura sets the lead's aura and appends a status event, in one
// atomic batch.
func (s *Store) ChangeAura(ctx context.Context, id, aura string, actor models.Actor) error {
	const op = "leads.ChangeAura"
	if !models.ValidAura(aura) {
		return apperr.Validationf(op, "unknown aura %q", aura)
	}
	return s.changeWithEvent(ctx, op, id, bson.M{models.LeadFieldAura: aura}, actor, models.EventStatus, "Aura -> "+aura)
}

// AddNote appends a note event. Markup is stripped from text.
func (s *Store) AddNote(ctx context.Context, id, text string, actor models.Actor) error {
	const op = "leads.AddNote"
	text = htmlsanitize.PlainText(text)
	if text == "" {
		return apperr.Validationf(op, "note text is required")
	}
	return s.changeWithEvent(ctx, op, id, bson.M{}, actor, models.EventNote, text)
}

func (s *Store) changeWithEvent(ctx context.Context, op, id string, fields bson.M, actor models.Actor, kind, text string) error {
	now := s.now()
	fields[models.LeadFieldUpdatedAt] = now

	b := s.ds.Batch()
	b.Update(models.CollLeads, id, fields)
	b.Append(models.CollLeads, id, models.LeadFieldTimeline, models.TimelineEvent{
		Timestamp: now,
		ActorName: actor.Name,
		Kind:      kind,
		Text:      text,
	})
	return s.commit(ctx, op, b, id)
}
