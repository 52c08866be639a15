// internal/app/store/leads/leadstore.go
package leadstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/leadhub/internal/app/system/apperr"
	"github.com/dalemusser/leadhub/internal/app/system/docstore"
	"github.com/dalemusser/leadhub/internal/app/system/normalize"
	"github.com/dalemusser/leadhub/internal/app/system/paging"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// protectedFields can only be written by the repository itself.
var protectedFields = map[string]bool{
	"_id":                     true,
	"id":                      true,
	models.LeadFieldEnteredBy: true,
	models.LeadFieldTeamID:    true,
	models.LeadFieldCreatedAt: true,
	models.LeadFieldUpdatedAt: true,
	models.LeadFieldTimeline:  true,
}

// Store is the lead repository.
type Store struct {
	ds       docstore.Store
	log      *zap.Logger
	now      func() time.Time
	pageSize int
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithDefaultPageSize sets the page size used when List gets pageSize <= 0.
func WithDefaultPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// New creates a lead Store.
func New(ds docstore.Store, log *zap.Logger, opts ...Option) *Store {
	s := &Store{
		ds:       ds,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		pageSize: paging.DefaultPageSize,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func str(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Add creates a lead on behalf of actor and returns its id.
//
// Ownership (entered_by, team_id) and created_at are always stamped from
// actor and the clock; any such keys in payload are ignored. Status
// defaults to "New", aura to "Mild", and the timeline starts with a single
// create event. A lead whose phone matches an existing lead is flagged
// is_duplicate.
func (s *Store) Add(ctx context.Context, payload map[string]any, actor models.Actor) (string, error) {
	const op = "leads.Add"
	if actor.ID == "" {
		return "", apperr.Validationf(op, "actor is required")
	}

	rawName, _ := str(payload, models.LeadFieldName)
	rawPhone, _ := str(payload, models.LeadFieldPhone)
	name := normalize.Name(rawName)
	phone := normalize.Phone(rawPhone)
	if name == "" {
		return "", apperr.Validationf(op, "name is required")
	}
	if phone == "" {
		return "", apperr.Validationf(op, "phone is required")
	}

	data := bson.M{}
	for k, v := range payload {
		if protectedFields[k] || k == models.LeadFieldIsDuplicate {
			continue
		}
		data[k] = v
	}
	data[models.LeadFieldName] = name
	data[models.LeadFieldPhone] = phone

	if st, _ := str(payload, models.LeadFieldStatus); st == "" {
		data[models.LeadFieldStatus] = models.StatusNew
	}
	aura, _ := str(payload, models.LeadFieldAura)
	switch {
	case aura == "":
		data[models.LeadFieldAura] = models.AuraMild
	case !models.ValidAura(aura):
		return "", apperr.Validationf(op, "unknown aura %q", aura)
	}

	dup, err := s.phoneExists(ctx, phone)
	if err != nil {
		return "", apperr.Store(op, err)
	}
	if dup {
		data[models.LeadFieldIsDuplicate] = true
	}

	now := s.now()
	stampOwnership(data, actor, now)
	data[models.LeadFieldTimeline] = bson.A{models.TimelineEvent{
		Timestamp: now,
		ActorName: actor.Name,
		Kind:      models.EventCreate,
		Text:      "Lead created",
	}}

	id, err := s.ds.Put(ctx, models.CollLeads, "", data, false)
	if err != nil {
		return "", apperr.Store(op, err)
	}
	s.log.Debug("lead added", zap.String("lead_id", id), zap.String("entered_by", actor.ID), zap.Bool("duplicate", dup))
	return id, nil
}

func stampOwnership(data bson.M, actor models.Actor, now time.Time) {
	team := actor.TeamID
	if team == "" {
		team = models.Unassigned
	}
	data[models.LeadFieldEnteredBy] = actor.ID
	data[models.LeadFieldTeamID] = team
	data[models.LeadFieldCreatedAt] = now
}

func (s *Store) phoneExists(ctx context.Context, phone string) (bool, error) {
	docs, err := s.ds.List(ctx, models.CollLeads, docstore.Query{
		Where: []docstore.Cond{docstore.Where(models.LeadFieldPhone, docstore.Eq, phone)},
		Limit: 1,
	})
	if err != nil {
		return false, err
	}
	return len(docs) > 0, nil
}

// Get returns the lead, or nil if it does not exist.
func (s *Store) Get(ctx context.Context, id string) (*models.Lead, error) {
	const op = "leads.Get"
	d, err := s.ds.Get(ctx, models.CollLeads, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	var l models.Lead
	if err := docstore.Decode(d, &l); err != nil {
		return nil, apperr.Store(op, err)
	}
	return &l, nil
}

// Update merges partial into an existing lead and stamps updated_at.
//
// Ownership, creation time, and the timeline cannot be written this way;
// such keys make the whole call fail. Update never adds timeline entries:
// use ChangeStatus, ChangeAura, or AddNote for changes that belong in the
// history.
func (s *Store) Update(ctx context.Context, id string, partial map[string]any) error {
	const op = "leads.Update"
	if len(partial) == 0 {
		return apperr.Validationf(op, "update must contain at least one field")
	}

	data := bson.M{}
	for k, v := range partial {
		if protectedFields[k] {
			return apperr.Validationf(op, "field %q cannot be updated", k)
		}
		data[k] = v
	}

	if _, ok := partial[models.LeadFieldName]; ok {
		v, _ := str(partial, models.LeadFieldName)
		n := normalize.Name(v)
		if n == "" {
			return apperr.Validationf(op, "name cannot be empty")
		}
		data[models.LeadFieldName] = n
	}
	if _, ok := partial[models.LeadFieldPhone]; ok {
		v, _ := str(partial, models.LeadFieldPhone)
		p := normalize.Phone(v)
		if p == "" {
			return apperr.Validationf(op, "phone cannot be empty")
		}
		data[models.LeadFieldPhone] = p
	}
	if _, ok := partial[models.LeadFieldAura]; ok {
		if v, _ := str(partial, models.LeadFieldAura); !models.ValidAura(v) {
			return apperr.Validationf(op, "unknown aura %v", partial[models.LeadFieldAura])
		}
	}
	if _, ok := partial[models.LeadFieldStatus]; ok {
		if v, _ := str(partial, models.LeadFieldStatus); v == "" {
			return apperr.Validationf(op, "status cannot be empty")
		}
	}
	data[models.LeadFieldUpdatedAt] = s.now()

	b := s.ds.Batch()
	b.Update(models.CollLeads, id, data)
	return s.commit(ctx, op, b, id)
}

// commit maps batch errors to repository errors.
func (s *Store) commit(ctx context.Context, op string, b docstore.Batch, id string) error {
	err := b.Commit(ctx)
	if errors.Is(err, docstore.ErrNotFound) {
		return apperr.NotFoundf(op, "lead %s does not exist", id)
	}
	if err != nil {
		return apperr.Store(op, fmt.Errorf("lead %s: %w", id, err))
	}
	return nil
}
