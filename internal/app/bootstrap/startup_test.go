package bootstrap

import (
	"context"
	"net/http"
	"strings"
	"testing"

	userstore "github.com/dalemusser/leadhub/internal/app/store/users"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"github.com/dalemusser/leadhub/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func testAppConfig() AppConfig {
	return AppConfig{
		StoreDriver:      "memory",
		SessionKey:       "test-session-key-0123456789abcdefghijkl",
		SessionName:      "leadhub-test",
		BatchLimit:       500,
		RestoreChunkSize: 450,
		BcryptCost:       bcrypt.MinCost,
		ConvertedStatus:  "Converted",
		StatsTimezone:    "UTC",
		DefaultPageSize:  20,
		AuditLogAdmin:    "log",
		AuditLogLeads:    "off",
	}
}

func TestEnsureSuperAdmin_CreatesNew(t *testing.T) {
	ds := testutil.NewStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	users := userstore.New(ds, testLogger(), userstore.WithBcryptCost(bcrypt.MinCost))

	if err := ensureSuperAdmin(ctx, users, "SuperAdmin@Test.com", testLogger()); err != nil {
		t.Fatalf("ensureSuperAdmin failed: %v", err)
	}

	u, err := users.GetByEmail(ctx, "superadmin@test.com")
	if err != nil || u == nil {
		t.Fatalf("created user not found: %v", err)
	}
	if u.Role != models.RoleSuperAdmin {
		t.Errorf("expected role SuperAdmin, got %q", u.Role)
	}
	if u.Status != models.UserStatusActive {
		t.Errorf("expected status Active, got %q", u.Status)
	}
}

func TestEnsureSuperAdmin_PromotesExisting(t *testing.T) {
	ds := testutil.NewStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	users := userstore.New(ds, testLogger(), userstore.WithBcryptCost(bcrypt.MinCost))

	fx := testutil.NewFixtures(t, ds)
	existing := fx.CreateUser(ctx, "Existing User", "existing@test.com", models.RoleExecutive, "team-1")

	if err := ensureSuperAdmin(ctx, users, "existing@test.com", testLogger()); err != nil {
		t.Fatalf("ensureSuperAdmin failed: %v", err)
	}

	u, err := users.Get(ctx, existing.ID)
	if err != nil || u == nil {
		t.Fatalf("Get: %v", err)
	}
	if u.Role != models.RoleSuperAdmin {
		t.Errorf("expected promotion to SuperAdmin, got %q", u.Role)
	}
	if n := ds.Count(models.CollUsers); n != 1 {
		t.Errorf("users: got %d, want 1", n)
	}
}

func TestEnsureSuperAdmin_Idempotent(t *testing.T) {
	ds := testutil.NewStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	users := userstore.New(ds, testLogger(), userstore.WithBcryptCost(bcrypt.MinCost))

	for i := 0; i < 2; i++ {
		if err := ensureSuperAdmin(ctx, users, "root@test.com", testLogger()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if n := ds.Count(models.CollUsers); n != 1 {
		t.Errorf("users: got %d, want 1", n)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{name: "memory defaults", mutate: func(*AppConfig) {}},
		{name: "mongo ok", mutate: func(c *AppConfig) {
			c.StoreDriver = "mongo"
			c.MongoURI = "mongodb://localhost:27017"
			c.MongoDatabase = "leadhub"
		}},
		{name: "bad driver", mutate: func(c *AppConfig) { c.StoreDriver = "sqlite" }, wantErr: "store_driver"},
		{name: "chunk above batch", mutate: func(c *AppConfig) { c.RestoreChunkSize = 501 }, wantErr: "restore_chunk_size"},
		{name: "zero chunk", mutate: func(c *AppConfig) { c.RestoreChunkSize = 0 }, wantErr: "restore_chunk_size"},
		{name: "bad timezone", mutate: func(c *AppConfig) { c.StatsTimezone = "Mars/Olympus" }, wantErr: "stats_timezone"},
		{name: "s3 without bucket", mutate: func(c *AppConfig) { c.StorageType = "s3" }, wantErr: "storage_s3_bucket"},
		{name: "local without path", mutate: func(c *AppConfig) { c.StorageType = "local" }, wantErr: "storage_local_path"},
		{name: "bad audit mode", mutate: func(c *AppConfig) { c.AuditLogAdmin = "loud" }, wantErr: "audit_log_admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testAppConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{Env: "dev"}, cfg, testLogger())
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestBuildHandler_MemoryStore(t *testing.T) {
	coreCfg := &config.CoreConfig{Env: "dev"}
	appCfg := testAppConfig()

	deps, err := ConnectDB(context.Background(), coreCfg, appCfg, testLogger())
	if err != nil {
		t.Fatalf("ConnectDB: %v", err)
	}
	if err := EnsureSchema(context.Background(), coreCfg, appCfg, deps, testLogger()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	h, err := BuildHandler(coreCfg, appCfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	tests := []struct {
		method, path string
		want         int
	}{
		{"GET", "/health", http.StatusOK},
		{"GET", "/metrics", http.StatusOK},
		{"GET", "/api/leads", http.StatusUnauthorized},
		{"GET", "/api/backup/snapshot", http.StatusUnauthorized},
		{"GET", "/api/userinfo", http.StatusOK},
		{"GET", "/nowhere", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := testutil.NewRecorder()
		h.ServeHTTP(rec, testutil.NewRequest(tt.method, tt.path))
		if rec.Code != tt.want {
			t.Errorf("%s %s: got %d, want %d (%s)", tt.method, tt.path, rec.Code, tt.want, rec.Body.String())
		}
	}

	if err := Shutdown(context.Background(), coreCfg, appCfg, deps, testLogger()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestNewArchiver_Local(t *testing.T) {
	cfg := testAppConfig()
	cfg.StorageType = "local"
	cfg.StorageLocalPath = t.TempDir()

	arch, err := newArchiver(cfg, testLogger())
	if err != nil {
		t.Fatalf("newArchiver failed: %v", err)
	}
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := arch.Put(ctx, "a.json", []byte("{}")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	list, err := arch.List(ctx)
	if err != nil || len(list) != 1 || list[0].Name != "a.json" {
		t.Errorf("List: got %+v, %v", list, err)
	}
}

func TestNewArchiver_Disabled(t *testing.T) {
	arch, err := newArchiver(testAppConfig(), testLogger())
	if err != nil || arch != nil {
		t.Errorf("newArchiver: got %v, %v; want nil, nil", arch, err)
	}
}
