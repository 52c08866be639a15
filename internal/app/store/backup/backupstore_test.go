package backupstore_test

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	backupstore "github.com/dalemusser/leadhub/internal/app/store/backup"
	"github.com/dalemusser/leadhub/internal/app/system/apperr"
	"github.com/dalemusser/leadhub/internal/app/system/docstore"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"github.com/dalemusser/leadhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newService(t *testing.T, ds docstore.Store, opts ...backupstore.Option) *backupstore.Service {
	t.Helper()
	opts = append([]backupstore.Option{backupstore.WithClock(func() time.Time { return t0 })}, opts...)
	svc, err := backupstore.New(ds, zap.NewNop(), opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return svc
}

func seedDirectory(t *testing.T, ds docstore.Store) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, ds)
	sup := fx.CreateUser(ctx, "Sam", "sam@example.com", models.RoleSupervisor, "")
	team := fx.CreateTeam(ctx, "North", sup.ID)
	exec := fx.CreateUser(ctx, "Eve", "eve@example.com", models.RoleExecutive, team.ID)
	owner := models.Actor{ID: exec.ID, Name: exec.Name, Role: models.RoleExecutive, TeamID: team.ID}
	for i := 0; i < 5; i++ {
		fx.CreateLead(ctx, fmt.Sprintf("Lead %d", i), fmt.Sprintf("90000000%02d", i), owner, t0.Add(time.Duration(i)*time.Minute))
	}
	fx.SetSettings(ctx, bson.M{
		"OriginType": bson.A{bson.M{"value": "Walk-in"}, bson.M{"value": "Referral"}},
		"RouteData":  bson.M{"North": bson.A{"School A"}},
		"Threshold":  int32(3),
	})
}

func records(s *backupstore.Snapshot) [][]backupstore.Record {
	return [][]backupstore.Record{s.Users, s.Teams, s.Leads, s.Settings}
}

func TestCreate(t *testing.T) {
	ds := testutil.NewStore(t)
	seedDirectory(t, ds)
	svc := newService(t, ds)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	snap, err := svc.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(snap.Users) != 2 || len(snap.Teams) != 1 || len(snap.Leads) != 5 || len(snap.Settings) != 1 {
		t.Fatalf("counts: users=%d teams=%d leads=%d settings=%d",
			len(snap.Users), len(snap.Teams), len(snap.Leads), len(snap.Settings))
	}
	if snap.Settings[0].OriginalID != models.SettingsID {
		t.Errorf("settings id: got %q, want %q", snap.Settings[0].OriginalID, models.SettingsID)
	}
	if !snap.Timestamp.Equal(t0) || snap.Version != backupstore.FormatVersion {
		t.Errorf("header: got %v %q", snap.Timestamp, snap.Version)
	}
	for _, r := range snap.Leads {
		if _, ok := r.Data["_id"]; ok {
			t.Errorf("record %s carries _id in data", r.OriginalID)
		}
	}
}

func TestRoundTrip_ThroughExtendedJSON(t *testing.T) {
	src := testutil.NewStore(t)
	seedDirectory(t, src)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	before, err := newService(t, src).Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	var buf bytes.Buffer
	if err := backupstore.WriteSnapshot(&buf, before); err != nil {
		t.Fatalf("WriteSnapshot failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"$date"`) {
		t.Error("snapshot should encode dates as extended JSON")
	}
	loaded, err := backupstore.ReadSnapshot(&buf)
	if err != nil {
		t.Fatalf("ReadSnapshot failed: %v", err)
	}
	if !loaded.Timestamp.Equal(before.Timestamp) {
		t.Errorf("timestamp: got %v, want %v", loaded.Timestamp, before.Timestamp)
	}

	dst := testutil.NewStore(t)
	rep, err := newService(t, dst).Restore(ctx, loaded)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if rep.Written != before.Len() {
		t.Errorf("written: got %d, want %d", rep.Written, before.Len())
	}

	after, err := newService(t, dst).Create(ctx)
	if err != nil {
		t.Fatalf("Create after restore failed: %v", err)
	}
	if !reflect.DeepEqual(records(before), records(after)) {
		t.Errorf("restored data differs from source\nbefore: %+v\nafter:  %+v", records(before), records(after))
	}
	for _, r := range after.Leads {
		if _, ok := r.Data[models.LeadFieldCreatedAt].(primitive.DateTime); !ok {
			t.Errorf("lead %s created_at: got %T, want primitive.DateTime", r.OriginalID, r.Data[models.LeadFieldCreatedAt])
		}
	}
}

func TestRestore_OverwritesExisting(t *testing.T) {
	ds := testutil.NewStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := ds.Put(ctx, models.CollLeads, "L1", bson.M{"name": "Old", "stale": true}, false); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	snap := &backupstore.Snapshot{Leads: []backupstore.Record{{OriginalID: "L1", Data: bson.M{"name": "New", "_id": "ignored"}}}}
	if _, err := newService(t, ds).Restore(ctx, snap); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	d, err := ds.Get(ctx, models.CollLeads, "L1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if d.Data["name"] != "New" {
		t.Errorf("name: got %v, want New", d.Data["name"])
	}
	if _, ok := d.Data["stale"]; ok {
		t.Error("restore should replace the whole document")
	}
}

func leadSnapshot(n int) *backupstore.Snapshot {
	snap := &backupstore.Snapshot{Timestamp: t0, Version: backupstore.FormatVersion}
	for i := 0; i < n; i++ {
		snap.Leads = append(snap.Leads, backupstore.Record{
			OriginalID: fmt.Sprintf("lead-%04d", i),
			Data:       bson.M{"name": fmt.Sprintf("Lead %d", i), "phone": fmt.Sprintf("9%09d", i)},
		})
	}
	return snap
}

func TestRestore_ChunksAtChunkSize(t *testing.T) {
	var sizes []int
	ds := testutil.NewStore(t, docstore.WithCommitHook(func(ops int) error {
		sizes = append(sizes, ops)
		return nil
	}))
	svc := newService(t, ds)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rep, err := svc.Restore(ctx, leadSnapshot(1200))
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if ds.Commits() != 3 {
		t.Errorf("commits: got %d, want 3", ds.Commits())
	}
	if want := []int{450, 450, 300}; !reflect.DeepEqual(sizes, want) {
		t.Errorf("chunk sizes: got %v, want %v", sizes, want)
	}
	if rep.Written != 1200 || rep.Chunks != 3 || rep.ByCollection[models.CollLeads] != 1200 {
		t.Errorf("report: got %+v", rep)
	}
	if ds.Count(models.CollLeads) != 1200 {
		t.Errorf("stored leads: got %d, want 1200", ds.Count(models.CollLeads))
	}
}

func TestRestore_ChunksSpanCollections(t *testing.T) {
	var sizes []int
	ds := testutil.NewStore(t, docstore.WithCommitHook(func(ops int) error {
		sizes = append(sizes, ops)
		return nil
	}))
	svc := newService(t, ds, backupstore.WithChunkSize(4))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	snap := leadSnapshot(3)
	snap.Users = []backupstore.Record{{OriginalID: "u1", Data: bson.M{"name": "A"}}, {OriginalID: "u2", Data: bson.M{"name": "B"}}}
	snap.Settings = []backupstore.Record{{OriginalID: models.SettingsID, Data: bson.M{"k": "v"}}}

	rep, err := svc.Restore(ctx, snap)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if want := []int{4, 2}; !reflect.DeepEqual(sizes, want) {
		t.Errorf("chunk sizes: got %v, want %v", sizes, want)
	}
	want := map[string]int{models.CollUsers: 2, models.CollLeads: 3, models.CollSettings: 1}
	if !reflect.DeepEqual(rep.ByCollection, want) {
		t.Errorf("by collection: got %v, want %v", rep.ByCollection, want)
	}
}

func TestRestore_PartialFailure(t *testing.T) {
	calls := 0
	boom := errors.New("store went away")
	ds := testutil.NewStore(t, docstore.WithCommitHook(func(ops int) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	}))
	svc := newService(t, ds)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rep, err := svc.Restore(ctx, leadSnapshot(1200))
	var re *backupstore.RestoreError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RestoreError, got %v", err)
	}
	if re.Chunk != 1 || re.LastCommittedChunk != 0 || re.RecordsCommitted != 450 {
		t.Errorf("restore error: got %+v", re)
	}
	if !errors.Is(err, boom) {
		t.Error("RestoreError should unwrap to the commit error")
	}
	if rep.Written != 450 {
		t.Errorf("report written: got %d, want 450", rep.Written)
	}
	if ds.Count(models.CollLeads) != 450 {
		t.Errorf("stored leads: got %d, want 450 (no rollback)", ds.Count(models.CollLeads))
	}
}

func TestRestore_ValidatesBeforeWriting(t *testing.T) {
	ds := testutil.NewStore(t)
	svc := newService(t, ds)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tests := []struct {
		name string
		snap *backupstore.Snapshot
	}{
		{"nil snapshot", nil},
		{"missing original id", &backupstore.Snapshot{
			Users: []backupstore.Record{{OriginalID: "u1", Data: bson.M{}}},
			Leads: []backupstore.Record{{OriginalID: "", Data: bson.M{"name": "x"}}},
		}},
		{"duplicate original id", &backupstore.Snapshot{
			Teams: []backupstore.Record{{OriginalID: "t1"}, {OriginalID: "t1"}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Restore(ctx, tt.snap)
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if ds.Count(models.CollUsers) != 0 || ds.Commits() != 0 {
		t.Error("nothing should be written when validation fails")
	}
}

func TestNew_RejectsChunkSize(t *testing.T) {
	ds := testutil.NewStore(t, docstore.WithMaxBatchOps(100))
	for _, n := range []int{0, -1, 101} {
		if _, err := backupstore.New(ds, zap.NewNop(), backupstore.WithChunkSize(n)); !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("chunk %d: expected validation error, got %v", n, err)
		}
	}
	if _, err := backupstore.New(ds, zap.NewNop()); err == nil {
		t.Error("default chunk size exceeds a 100-op batch limit and should be rejected")
	}
	if _, err := backupstore.New(ds, zap.NewNop(), backupstore.WithChunkSize(100)); err != nil {
		t.Errorf("chunk equal to the batch limit should be accepted: %v", err)
	}
}

func TestReadSnapshot_Rejects(t *testing.T) {
	for _, in := range []string{"", "   ", "{not json"} {
		if _, err := backupstore.ReadSnapshot(strings.NewReader(in)); !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("input %q: expected validation error, got %v", in, err)
		}
	}
}
