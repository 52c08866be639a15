// Package testutil provides fixtures and helpers shared by package tests.
package testutil

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/dalemusser/leadhub/internal/app/system/docstore"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
)

// MongoURIEnv names the variable that enables MongoDB-backed tests.
const MongoURIEnv = "LEADHUB_TEST_MONGO_URI"

// MongoURI returns the test MongoDB URI, skipping the test when unset.
func MongoURI(t *testing.T) string {
	t.Helper()
	uri := os.Getenv(MongoURIEnv)
	if uri == "" {
		t.Skipf("%s not set; skipping MongoDB test", MongoURIEnv)
	}
	return uri
}

// TestContext returns a context with a timeout suitable for tests.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// NewStore returns an empty in-memory document store.
func NewStore(t *testing.T, opts ...docstore.MemoryOption) *docstore.Memory {
	t.Helper()
	return docstore.NewMemory(opts...)
}

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures writes test records straight into a document store, bypassing
// repository validation.
type Fixtures struct {
	ds docstore.Store
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given store.
func NewFixtures(t *testing.T, ds docstore.Store) *Fixtures {
	t.Helper()
	return &Fixtures{ds: ds, t: t}
}

// Store returns the underlying document store.
func (f *Fixtures) Store() docstore.Store {
	return f.ds
}

func (f *Fixtures) put(ctx context.Context, coll, id string, v any) {
	f.t.Helper()
	data, err := docstore.Encode(v)
	if err != nil {
		f.t.Fatalf("encode %s fixture: %v", coll, err)
	}
	if _, err := f.ds.Put(ctx, coll, id, data, false); err != nil {
		f.t.Fatalf("put %s fixture: %v", coll, err)
	}
}

// CreateUser stores a user with the given role and team.
func (f *Fixtures) CreateUser(ctx context.Context, name, email string, role models.Role, teamID string) models.User {
	f.t.Helper()
	u := models.User{
		ID:        docstore.NewID(),
		Name:      name,
		Email:     email,
		Role:      role,
		TeamID:    teamID,
		Status:    models.UserStatusActive,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	f.put(ctx, models.CollUsers, u.ID, u)
	return u
}

// CreateTeam stores a team led by supervisorID ("" for none).
func (f *Fixtures) CreateTeam(ctx context.Context, name, supervisorID string) models.Team {
	f.t.Helper()
	tm := models.Team{
		ID:           docstore.NewID(),
		Name:         name,
		SupervisorID: supervisorID,
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	f.put(ctx, models.CollTeams, tm.ID, tm)
	return tm
}

// CreateLead stores a lead entered by owner at createdAt.
func (f *Fixtures) CreateLead(ctx context.Context, name, phone string, owner models.Actor, createdAt time.Time) models.Lead {
	f.t.Helper()
	team := owner.TeamID
	if team == "" {
		team = models.Unassigned
	}
	l := models.Lead{
		ID:        docstore.NewID(),
		Name:      name,
		Phone:     phone,
		LeadType:  models.LeadTypeStudent,
		Status:    models.StatusNew,
		Aura:      models.AuraMild,
		EnteredBy: owner.ID,
		TeamID:    team,
		CreatedAt: createdAt.UTC().Truncate(time.Millisecond),
		Timeline: []models.TimelineEvent{{
			Timestamp: createdAt.UTC().Truncate(time.Millisecond),
			ActorName: owner.Name,
			Kind:      models.EventCreate,
			Text:      "Lead created",
		}},
	}
	f.put(ctx, models.CollLeads, l.ID, l)
	return l
}

// SetSettings overwrites the settings singleton.
func (f *Fixtures) SetSettings(ctx context.Context, s bson.M) {
	f.t.Helper()
	if _, err := f.ds.Put(ctx, models.CollSettings, models.SettingsID, s, false); err != nil {
		f.t.Fatalf("put settings fixture: %v", err)
	}
}
