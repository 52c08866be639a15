// internal/app/store/teams/teamstore.go
package teamstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/leadhub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/leadhub/internal/app/system/apperr"
	"github.com/dalemusser/leadhub/internal/app/system/docstore"
	"github.com/dalemusser/leadhub/internal/app/system/normalize"
	"github.com/dalemusser/leadhub/internal/app/system/validation"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Store is the team half of the directory repository.
type Store struct {
	ds  docstore.Store
	log *zap.Logger
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(ds docstore.Store, log *zap.Logger, opts ...Option) *Store {
	s := &Store{ds: ds, log: log, now: func() time.Time { return time.Now().UTC() }}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewTeam is the input to Add.
type NewTeam struct {
	Name         string `json:"name" validate:"required,max=200"`
	SupervisorID string `json:"supervisor_id" validate:"omitempty,max=64"`
}

// Add creates a team and returns its id.
func (s *Store) Add(ctx context.Context, in NewTeam) (string, error) {
	const op = "teams.Add"
	in.Name = normalize.Name(in.Name)
	in.SupervisorID = strings.TrimSpace(in.SupervisorID)
	if err := validation.Struct(op, in); err != nil {
		return "", err
	}
	name, sup := in.Name, in.SupervisorID
	if err := s.checkSupervisor(ctx, op, sup); err != nil {
		return "", err
	}

	t := models.Team{
		ID:           docstore.NewID(),
		Name:         name,
		SupervisorID: sup,
		CreatedAt:    s.now(),
	}
	data, err := docstore.Encode(t)
	if err != nil {
		return "", apperr.Store(op, err)
	}
	if _, err := s.ds.Put(ctx, models.CollTeams, t.ID, data, false); err != nil {
		return "", apperr.Store(op, err)
	}
	s.log.Info("team created", zap.String("team_id", t.ID), zap.String("supervisor_id", sup))
	return t.ID, nil
}

// checkSupervisor verifies a non-empty supervisor id names an existing user.
func (s *Store) checkSupervisor(ctx context.Context, op, id string) error {
	if id == "" {
		return nil
	}
	_, err := s.ds.Get(ctx, models.CollUsers, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return apperr.Validationf(op, "supervisor %s does not exist", id)
	}
	return apperr.Store(op, err)
}

// Update changes a team's name and/or supervisor. An empty supervisor_id
// clears it.
func (s *Store) Update(ctx context.Context, id string, partial map[string]any) error {
	const op = "teams.Update"
	if len(partial) == 0 {
		return apperr.Validationf(op, "update must contain at least one field")
	}
	data := bson.M{}
	for k, v := range partial {
		sv, ok := v.(string)
		if !ok {
			return apperr.Validationf(op, "field %q must be a string", k)
		}
		switch k {
		case models.TeamFieldName:
			sv = normalize.Name(sv)
			if err := validation.Var(op, "name", sv, "required,max=200"); err != nil {
				return err
			}
		case models.TeamFieldSupervisorID:
			sv = strings.TrimSpace(sv)
			if err := s.checkSupervisor(ctx, op, sv); err != nil {
				return err
			}
		default:
			return apperr.Validationf(op, "field %q cannot be updated", k)
		}
		data[k] = sv
	}
	data[models.TeamFieldUpdatedAt] = s.now()

	b := s.ds.Batch()
	b.Update(models.CollTeams, id, data)
	err := b.Commit(ctx)
	if errors.Is(err, docstore.ErrNotFound) {
		return apperr.NotFoundf(op, "team %s does not exist", id)
	}
	return apperr.Store(op, err)
}

// Get returns the team, or nil if it does not exist.
func (s *Store) Get(ctx context.Context, id string) (*models.Team, error) {
	const op = "teams.Get"
	d, err := s.ds.Get(ctx, models.CollTeams, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	var t models.Team
	if err := docstore.Decode(d, &t); err != nil {
		return nil, apperr.Store(op, err)
	}
	return &t, nil
}

// List returns the teams subject may see, sorted by name.
func (s *Store) List(ctx context.Context, subject accesspolicy.Subject) ([]models.Team, error) {
	const op = "teams.List"
	docs, err := s.ds.List(ctx, models.CollTeams, docstore.Query{})
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	teams, err := docstore.DecodeAll[models.Team](docs)
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	teams = accesspolicy.FilterTeams(subject, teams)
	sort.SliceStable(teams, func(i, j int) bool {
		return text.Fold(teams[i].Name) < text.Fold(teams[j].Name)
	})
	return teams, nil
}

// LedBy returns the ids of the teams supervisorID supervises.
func (s *Store) LedBy(ctx context.Context, supervisorID string) ([]string, error) {
	const op = "teams.LedBy"
	if supervisorID == "" {
		return nil, nil
	}
	docs, err := s.ds.List(ctx, models.CollTeams, docstore.Query{
		Where: []docstore.Cond{docstore.Where(models.TeamFieldSupervisorID, docstore.Eq, supervisorID)},
	})
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// SubjectFor resolves the policy subject for actor. Only supervisors need
// a lookup; other roles get a Subject with no led teams.
func (s *Store) SubjectFor(ctx context.Context, actor models.Actor) (accesspolicy.Subject, error) {
	sub := accesspolicy.Subject{Actor: actor}
	if actor.Role != models.RoleSupervisor {
		return sub, nil
	}
	led, err := s.LedBy(ctx, actor.ID)
	if err != nil {
		return accesspolicy.Subject{}, err
	}
	sub.LedTeamIDs = led
	return sub, nil
}

// Members returns the users whose team is teamID.
func (s *Store) Members(ctx context.Context, teamID string) ([]models.User, error) {
	const op = "teams.Members"
	docs, err := s.ds.List(ctx, models.CollUsers, docstore.Query{
		Where: []docstore.Cond{docstore.Where(models.UserFieldTeamID, docstore.Eq, teamID)},
	})
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	users, err := docstore.DecodeAll[models.User](docs)
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	return users, nil
}

// Delete removes a team and moves its members to "Unassigned", in one
// atomic batch. Returns the number of members moved. Leads keep the
// team_id they were stamped with.
func (s *Store) Delete(ctx context.Context, id string) (int, error) {
	const op = "teams.Delete"
	if id == "" || id == models.Unassigned {
		return 0, apperr.Validationf(op, "invalid team id %q", id)
	}
	t, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if t == nil {
		return 0, apperr.NotFoundf(op, "team %s does not exist", id)
	}
	members, err := s.ds.List(ctx, models.CollUsers, docstore.Query{
		Where: []docstore.Cond{docstore.Where(models.UserFieldTeamID, docstore.Eq, id)},
	})
	if err != nil {
		return 0, apperr.Store(op, err)
	}
	if max := s.ds.MaxBatchOps(); len(members)+1 > max {
		return 0, apperr.Validationf(op, "team %s has %d members; a delete can move at most %d", id, len(members), max-1)
	}

	now := s.now()
	b := s.ds.Batch()
	for _, d := range members {
		b.Update(models.CollUsers, d.ID, bson.M{models.UserFieldTeamID: models.Unassigned, models.UserFieldUpdatedAt: now})
	}
	b.Delete(models.CollTeams, id)
	if err := b.Commit(ctx); err != nil {
		return 0, apperr.Store(op, err)
	}
	s.log.Info("team deleted", zap.String("team_id", id), zap.Int("members_moved", len(members)))
	return len(members), nil
}
