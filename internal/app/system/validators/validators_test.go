package validators_test

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/leadhub/internal/app/system/validators"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"github.com/dalemusser/leadhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func TestSchemas_CoverWrittenCollections(t *testing.T) {
	got := map[string]bool{}
	for _, s := range validators.Schemas() {
		got[s.Collection] = s.Validator != nil
	}
	want := map[string]bool{
		models.CollUsers:    true,
		models.CollTeams:    true,
		models.CollLeads:    true,
		models.CollSettings: false,
		models.CollAudit:    false,
	}
	for coll, hasValidator := range want {
		v, ok := got[coll]
		if !ok {
			t.Errorf("collection %s not ensured", coll)
			continue
		}
		if v != hasValidator {
			t.Errorf("collection %s: validator present=%v, want %v", coll, v, hasValidator)
		}
	}
}

func setupDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := testutil.MongoURI(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	db := client.Database("leadhub_validators_test")
	_ = db.Drop(ctx)
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return db
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := setupDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	if len(names) < len(validators.Schemas()) {
		t.Errorf("collections: got %v", names)
	}
}

func TestValidators_RejectInvalidDocuments(t *testing.T) {
	db := setupDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	tests := []struct {
		name    string
		coll    string
		doc     bson.M
		wantErr bool
	}{
		{"valid user", models.CollUsers, bson.M{"_id": "u1", "name": "Ann", "email": "a@example.com", "role": "Executive"}, false},
		{"legacy role", models.CollUsers, bson.M{"_id": "u2", "name": "Bo", "email": "b@example.com", "role": "Employee"}, false},
		{"unknown role", models.CollUsers, bson.M{"_id": "u3", "name": "Cy", "email": "c@example.com", "role": "root"}, true},
		{"user without email", models.CollUsers, bson.M{"_id": "u4", "name": "Di", "role": "Executive"}, true},
		{"blank team name", models.CollTeams, bson.M{"_id": "t1", "name": "  "}, true},
		{"valid lead", models.CollLeads, bson.M{"_id": "l1", "phone": "999", "entered_by": "u1", "created_at": now, "aura": "Hot"}, false},
		{"bad aura", models.CollLeads, bson.M{"_id": "l2", "phone": "999", "entered_by": "u1", "created_at": now, "aura": "Warm"}, true},
		{"string created_at", models.CollLeads, bson.M{"_id": "l3", "phone": "999", "entered_by": "u1", "created_at": "2026-01-01"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.Collection(tt.coll).InsertOne(ctx, tt.doc)
			if (err != nil) != tt.wantErr {
				t.Errorf("InsertOne: err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}
