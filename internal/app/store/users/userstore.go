package userstore

import (
	"context"
	"errors"
	"fmt"
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
	"golang.org/x/crypto/bcrypt"
)

// Store is the user half of the directory repository.
type Store struct {
	ds   docstore.Store
	log  *zap.Logger
	now  func() time.Time
	cost int
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Store) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.cost = cost
		}
	}
}

func New(ds docstore.Store, log *zap.Logger, opts ...Option) *Store {
	s := &Store{
		ds:   ds,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
		cost: bcrypt.DefaultCost,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewUser is the input to Add. Role accepts legacy spellings such as
// "admin" or "Employee".
type NewUser struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	Role     string `json:"role" validate:"required"`
	TeamID   string `json:"team_id"`
	Status   string `json:"status" validate:"omitempty,oneof=Active Inactive"`
	Password string `json:"password" validate:"omitempty,min=8,max=72"`
}

// Add creates a user and returns its id.
//
// The email is normalized and must be unused (ConflictError otherwise).
// Status defaults to "Active"; an Executive without a team is placed in
// "Unassigned". The pre-check is a read followed by a write; on MongoDB
// the unique email index rejects the losing writer of a race, which is
// also reported as a conflict.
func (s *Store) Add(ctx context.Context, in NewUser) (string, error) {
	const op = "users.Add"
	in.Name = normalize.Name(in.Name)
	in.Email = normalize.Email(in.Email)
	in.Phone = normalize.Phone(in.Phone)
	in.Status = normalize.Status(in.Status)
	if err := validation.Struct(op, in); err != nil {
		return "", err
	}
	role, ok := models.ParseRole(in.Role)
	if !ok {
		return "", apperr.Validationf(op, "unknown role %q", in.Role)
	}

	existing, err := s.GetByEmail(ctx, in.Email)
	if err != nil {
		return "", apperr.Store(op, err)
	}
	if existing != nil {
		return "", apperr.Conflictf(op, "email %s is already registered", in.Email)
	}

	u := models.User{
		ID:        docstore.NewID(),
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Role:      role,
		TeamID:    strings.TrimSpace(in.TeamID),
		Status:    in.Status,
		CreatedAt: s.now(),
	}
	if u.Status == "" {
		u.Status = models.UserStatusActive
	}
	if u.Role == models.RoleExecutive && u.TeamID == "" {
		u.TeamID = models.Unassigned
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
		if err != nil {
			return "", apperr.Validationf(op, "password: %v", err)
		}
		u.PasswordHash = string(hash)
	}

	data, err := docstore.Encode(u)
	if err != nil {
		return "", apperr.Store(op, err)
	}
	if _, err := s.ds.Put(ctx, models.CollUsers, u.ID, data, false); err != nil {
		if errors.Is(err, docstore.ErrDuplicate) {
			return "", apperr.Conflictf(op, "email %s is already registered", in.Email)
		}
		return "", apperr.Store(op, err)
	}
	s.log.Info("user created", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return u.ID, nil
}

// Get returns the user, or nil if it does not exist.
func (s *Store) Get(ctx context.Context, id string) (*models.User, error) {
	const op = "users.Get"
	d, err := s.ds.Get(ctx, models.CollUsers, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	var u models.User
	if err := docstore.Decode(d, &u); err != nil {
		return nil, apperr.Store(op, err)
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns nil if
// no user has it.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "users.GetByEmail"
	docs, err := s.ds.List(ctx, models.CollUsers, docstore.Query{
		Where: []docstore.Cond{docstore.Where(models.UserFieldEmail, docstore.Eq, normalize.Email(email))},
		Limit: 1,
	})
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	var u models.User
	if err := docstore.Decode(docs[0], &u); err != nil {
		return nil, apperr.Store(op, err)
	}
	return &u, nil
}

// updatable lists the keys Update accepts.
var updatable = map[string]bool{
	models.UserFieldName:   true,
	models.UserFieldEmail:  true,
	"phone":                true,
	models.UserFieldRole:   true,
	models.UserFieldTeamID: true,
	models.UserFieldStatus: true,
	"password":             true,
}

// Update merges partial into an existing user and stamps updated_at.
//
// A "password" key is hashed into password_hash; password_hash, id and
// created_at cannot be written directly. A changed email must be free.
// An Executive left without a team is placed in Unassigned, as in Add.
func (s *Store) Update(ctx context.Context, id string, partial map[string]any) error {
	const op = "users.Update"
	if len(partial) == 0 {
		return apperr.Validationf(op, "update must contain at least one field")
	}

	data := bson.M{}
	for k, v := range partial {
		if !updatable[k] {
			return apperr.Validationf(op, "field %q cannot be updated", k)
		}
		sv, ok := v.(string)
		if !ok {
			return apperr.Validationf(op, "field %q must be a string", k)
		}
		switch k {
		case models.UserFieldName:
			sv = normalize.Name(sv)
			if sv == "" {
				return apperr.Validationf(op, "name cannot be empty")
			}
		case models.UserFieldEmail:
			sv = normalize.Email(sv)
			if err := validation.Var(op, "email", sv, "required,email"); err != nil {
				return err
			}
			other, err := s.GetByEmail(ctx, sv)
			if err != nil {
				return apperr.Store(op, err)
			}
			if other != nil && other.ID != id {
				return apperr.Conflictf(op, "email %s is already registered", sv)
			}
		case "phone":
			sv = normalize.Phone(sv)
		case models.UserFieldTeamID:
			sv = strings.TrimSpace(sv)
		case models.UserFieldRole:
			role, ok := models.ParseRole(sv)
			if !ok {
				return apperr.Validationf(op, "unknown role %q", sv)
			}
			sv = string(role)
		case models.UserFieldStatus:
			sv = normalize.Status(sv)
			if sv != models.UserStatusActive && sv != models.UserStatusInactive {
				return apperr.Validationf(op, "status must be Active or Inactive")
			}
		case "password":
			if err := validation.Var(op, "password", sv, "min=8,max=72"); err != nil {
				return err
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(sv), s.cost)
			if err != nil {
				return apperr.Validationf(op, "password: %v", err)
			}
			data[models.UserFieldPasswordHash] = string(hash)
			continue
		}
		data[k] = sv
	}
	if err := s.keepExecutiveAssigned(ctx, op, id, data); err != nil {
		return err
	}
	data[models.UserFieldUpdatedAt] = s.now()

	b := s.ds.Batch()
	b.Update(models.CollUsers, id, data)
	err := b.Commit(ctx)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return apperr.NotFoundf(op, "user %s does not exist", id)
	case errors.Is(err, docstore.ErrDuplicate):
		return apperr.Conflictf(op, "email is already registered")
	case err != nil:
		return apperr.Store(op, err)
	}
	return nil
}

// keepExecutiveAssigned sets team_id to Unassigned in data when the
// update leaves the user an Executive with no team. The stored user is
// read only when data touches one of role or team_id but not both.
func (s *Store) keepExecutiveAssigned(ctx context.Context, op, id string, data bson.M) error {
	role, hasRole := data[models.UserFieldRole].(string)
	team, hasTeam := data[models.UserFieldTeamID].(string)
	if !hasRole && !hasTeam {
		return nil
	}
	if !hasRole || !hasTeam {
		cur, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return apperr.NotFoundf(op, "user %s does not exist", id)
		}
		if !hasRole {
			r, _ := models.ParseRole(string(cur.Role))
			role = string(r)
		}
		if !hasTeam {
			team = cur.TeamID
		}
	}
	if models.Role(role) == models.RoleExecutive && team == "" {
		data[models.UserFieldTeamID] = models.Unassigned
	}
	return nil
}

// Filter narrows List. Empty fields do not filter.
type Filter struct {
	Search string // case-insensitive substring of name or email
	Role   models.Role
	Team   string
	Status string
}

// List returns the users subject may see that match f, sorted by name.
// It scans the users collection.
func (s *Store) List(ctx context.Context, subject accesspolicy.Subject, f Filter) ([]models.User, error) {
	const op = "users.List"
	var where []docstore.Cond
	if f.Role != "" {
		where = append(where, docstore.Where(models.UserFieldRole, docstore.Eq, string(f.Role)))
	}
	if f.Team != "" {
		where = append(where, docstore.Where(models.UserFieldTeamID, docstore.Eq, f.Team))
	}
	if f.Status != "" {
		where = append(where, docstore.Where(models.UserFieldStatus, docstore.Eq, normalize.Status(f.Status)))
	}
	docs, err := s.ds.List(ctx, models.CollUsers, docstore.Query{Where: where})
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	users, err := docstore.DecodeAll[models.User](docs)
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	users = accesspolicy.FilterUsers(subject, users)

	if q := text.Fold(strings.TrimSpace(f.Search)); q != "" {
		out := users[:0]
		for _, u := range users {
			if strings.Contains(text.Fold(u.Name), q) || strings.Contains(text.Fold(u.Email), q) {
				out = append(out, u)
			}
		}
		users = out
	}
	sort.SliceStable(users, func(i, j int) bool {
		return text.Fold(users[i].Name) < text.Fold(users[j].Name)
	})
	return users, nil
}

// DeleteSafe removes a user after handing everything they own to
// successorID: leads they entered and teams they supervise. All writes
// and the delete happen in one atomic batch, so either every reference
// moves or nothing changes. Returns the number of reassigned records.
//
// The batch must fit the store's batch limit; a user owning more records
// than that is rejected with a validation error and left untouched.
func (s *Store) DeleteSafe(ctx context.Context, userID, successorID string) (int, error) {
	const op = "users.DeleteSafe"
	if userID == "" || successorID == "" {
		return 0, apperr.Validationf(op, "user and successor are required")
	}
	if userID == successorID {
		return 0, apperr.Validationf(op, "successor must be a different user")
	}
	for _, id := range []string{userID, successorID} {
		u, err := s.Get(ctx, id)
		if err != nil {
			return 0, err
		}
		if u == nil {
			return 0, apperr.NotFoundf(op, "user %s does not exist", id)
		}
	}

	leads, err := s.ds.List(ctx, models.CollLeads, docstore.Query{
		Where: []docstore.Cond{docstore.Where(models.LeadFieldEnteredBy, docstore.Eq, userID)},
	})
	if err != nil {
		return 0, apperr.Store(op, err)
	}
	teams, err := s.ds.List(ctx, models.CollTeams, docstore.Query{
		Where: []docstore.Cond{docstore.Where(models.TeamFieldSupervisorID, docstore.Eq, userID)},
	})
	if err != nil {
		return 0, apperr.Store(op, err)
	}

	reassigned := len(leads) + len(teams)
	if max := s.ds.MaxBatchOps(); reassigned+1 > max {
		return 0, apperr.Validationf(op, "user %s owns %d records; a safe delete can move at most %d", userID, reassigned, max-1)
	}

	now := s.now()
	b := s.ds.Batch()
	for _, d := range leads {
		b.Update(models.CollLeads, d.ID, bson.M{models.LeadFieldEnteredBy: successorID, models.LeadFieldUpdatedAt: now})
	}
	for _, d := range teams {
		b.Update(models.CollTeams, d.ID, bson.M{models.TeamFieldSupervisorID: successorID, models.TeamFieldUpdatedAt: now})
	}
	b.Delete(models.CollUsers, userID)
	if err := b.Commit(ctx); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return 0, apperr.NotFoundf(op, "a reassigned record disappeared: %v", err)
		}
		return 0, apperr.Store(op, fmt.Errorf("delete user %s: %w", userID, err))
	}

	s.log.Info("user deleted",
		zap.String("user_id", userID),
		zap.String("successor_id", successorID),
		zap.Int("reassigned", reassigned))
	return reassigned, nil
}

// CheckPassword reports whether password matches u's stored hash.
func CheckPassword(u *models.User, password string) bool {
	if u == nil || u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
