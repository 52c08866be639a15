package settings_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/leadhub/internal/app/features/settings"
	settingsstore "github.com/dalemusser/leadhub/internal/app/store/settings"
	"github.com/dalemusser/leadhub/internal/app/system/auditlog"
	"github.com/dalemusser/leadhub/internal/app/system/docstore"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"github.com/dalemusser/leadhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*docstore.Memory, *testutil.Fixtures, chi.Router) {
	t.Helper()
	ds := testutil.NewStore(t)
	log := zap.NewNop()
	h := settings.NewHandler(settingsstore.New(ds, log), auditlog.New(ds, log, auditlog.Config{Admin: "db"}), log)
	return ds, testutil.NewFixtures(t, ds), settings.Routes(h)
}

func serve(router chi.Router, r *http.Request, a models.Actor) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.AsActor(r, a))
	return rec
}

func TestServeSettings_EmptyWhenMissing(t *testing.T) {
	_, _, router := setup(t)
	rec := serve(router, testutil.NewRequest("GET", "/"), testutil.Executive("e", "t"))
	rec.AssertStatus(t, http.StatusOK)

	var got map[string]any
	rec.DecodeJSON(t, &got)
	if len(got) != 0 {
		t.Errorf("expected empty settings, got %v", got)
	}
}

func TestHandleSettings_MergesKeys(t *testing.T) {
	ds, fx, router := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.SetSettings(ctx, bson.M{"Courses": bson.A{bson.M{"value": "BSc"}}})

	rec := serve(router, testutil.NewJSONRequest(t, "PATCH", "/", map[string]any{
		"RouteData": map[string]any{"North": []string{"School A"}},
	}), testutil.SuperAdmin())
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"RouteData"`)

	d, err := ds.Get(ctx, models.CollSettings, models.SettingsID)
	if err != nil {
		t.Fatalf("Get settings: %v", err)
	}
	if _, ok := d.Data["Courses"]; !ok {
		t.Error("merge dropped an existing key")
	}
	if _, ok := d.Data["RouteData"]; !ok {
		t.Error("merge did not write the new key")
	}
	if n := ds.Count(models.CollAudit); n != 1 {
		t.Errorf("audit events: got %d, want 1", n)
	}
}

func TestHandleSettings_ManagerOnly(t *testing.T) {
	_, _, router := setup(t)
	rec := serve(router, testutil.NewJSONRequest(t, "PATCH", "/", map[string]any{"X": 1}), testutil.Supervisor("s", "t"))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = serve(router, testutil.NewJSONRequest(t, "PATCH", "/", map[string]any{"a.b": 1}), testutil.SuperAdmin())
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestOptions_AddListRemove(t *testing.T) {
	_, _, router := setup(t)
	admin := testutil.SuperAdmin()

	rec := serve(router, testutil.NewJSONRequest(t, "POST", "/options/OriginType", map[string]string{"value": "Walk-in"}), admin)
	rec.AssertStatus(t, http.StatusOK)
	rec = serve(router, testutil.NewJSONRequest(t, "POST", "/options/OriginType", map[string]string{"value": "Referral"}), admin)
	rec.AssertStatus(t, http.StatusOK)

	rec = serve(router, testutil.NewRequest("GET", "/options/OriginType"), testutil.Executive("e", "t"))
	rec.AssertStatus(t, http.StatusOK)
	var vals []string
	rec.DecodeJSON(t, &vals)
	if len(vals) != 2 || vals[0] != "Walk-in" || vals[1] != "Referral" {
		t.Errorf("options: got %v", vals)
	}

	rec = serve(router, testutil.NewRequest("DELETE", "/options/OriginType?value=Walk-in"), admin)
	rec.AssertStatus(t, http.StatusOK)
	vals = nil
	rec.DecodeJSON(t, &vals)
	if len(vals) != 1 || vals[0] != "Referral" {
		t.Errorf("after remove: got %v", vals)
	}

	rec = serve(router, testutil.NewRequest("DELETE", "/options/OriginType?value=Walk-in"), admin)
	rec.AssertStatus(t, http.StatusNotFound)

	rec = serve(router, testutil.NewJSONRequest(t, "POST", "/options/OriginType", map[string]string{"value": " "}), admin)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestReload(t *testing.T) {
	_, fx, router := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.SetSettings(ctx, bson.M{"Status": bson.A{bson.M{"value": "New"}}})

	rec := serve(router, testutil.NewRequest("POST", "/reload"), testutil.SuperAdmin())
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"Status"`)
}
