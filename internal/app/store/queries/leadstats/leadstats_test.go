package leadstats_test

import (
	"testing"
	"time"

	"github.com/dalemusser/leadhub/internal/app/policy/accesspolicy"
	leadstore "github.com/dalemusser/leadhub/internal/app/store/leads"
	"github.com/dalemusser/leadhub/internal/app/store/queries/leadstats"
	"github.com/dalemusser/leadhub/internal/app/system/docstore"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"github.com/dalemusser/leadhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// 2026-03-01 is a Sunday.
var sunday = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type world struct {
	ds      *docstore.Memory
	scanner *leadstats.Scanner
	e1, e2  models.User
	sup     models.User
}

func setup(t *testing.T, opts ...leadstats.Option) world {
	t.Helper()
	ds := testutil.NewStore(t)
	f := testutil.NewFixtures(t, ds)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	w := world{ds: ds}
	w.sup = f.CreateUser(ctx, "Sam", "sam@x.com", models.RoleSupervisor, "")
	w.e1 = f.CreateUser(ctx, "Asha", "asha@x.com", models.RoleExecutive, "T1")
	w.e2 = f.CreateUser(ctx, "Bala", "bala@x.com", models.RoleExecutive, "T2")

	mk := func(owner models.User, at time.Time, status, aura, route string) {
		l := f.CreateLead(ctx, "L", "1", owner.Actor(), at)
		if _, err := ds.Put(ctx, models.CollLeads, l.ID, bson.M{"status": status, "aura": aura, "route": route}, true); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	mk(w.e1, sunday, "Converted", "Hot", "North")
	mk(w.e1, sunday.Add(24*time.Hour), "New", "Hot", "North")
	mk(w.e1, sunday.Add(48*time.Hour), "Converted", "Mild", "South")
	mk(w.e2, sunday.Add(23*time.Hour), "New", "Cold", "")

	w.scanner = leadstats.New(ds, leadstore.New(ds, zap.NewNop()), opts...)
	return w
}

func TestScanUserStats(t *testing.T) {
	w := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	st, err := w.scanner.ScanUserStats(ctx, w.e1.ID)
	if err != nil {
		t.Fatalf("ScanUserStats: %v", err)
	}
	if st.Total != 3 || st.Converted != 2 || st.Hot != 2 {
		t.Errorf("totals: %+v", st)
	}
	if st.ByWeekday != [7]int{1, 1, 1, 0, 0, 0, 0} {
		t.Errorf("weekday histogram: %v", st.ByWeekday)
	}
	if st.ByStatus["Converted"] != 2 || st.ByStatus["New"] != 1 {
		t.Errorf("by status: %v", st.ByStatus)
	}
}

func TestScanTeamStats_Location(t *testing.T) {
	// 23:00 UTC Sunday is Monday in Kolkata.
	ist, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	w := setup(t, leadstats.WithLocation(ist))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	st, err := w.scanner.ScanTeamStats(ctx, "T2")
	if err != nil {
		t.Fatalf("ScanTeamStats: %v", err)
	}
	if st.Total != 1 || st.ByWeekday[time.Monday] != 1 {
		t.Errorf("team stats: %+v", st)
	}

	empty, err := w.scanner.ScanTeamStats(ctx, "nobody")
	if err != nil || empty.Total != 0 {
		t.Errorf("empty team: %+v %v", empty, err)
	}
}

func TestConvertedStatusConfigurable(t *testing.T) {
	w := setup(t, leadstats.WithConvertedStatus("New"))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	st, _ := w.scanner.ScanUserStats(ctx, w.e1.ID)
	if st.Converted != 1 {
		t.Errorf("converted with custom label: got %d, want 1", st.Converted)
	}
}

func TestScanSummary_RoleScoped(t *testing.T) {
	w := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	all, err := w.scanner.ScanSummary(ctx, accesspolicy.Subject{Actor: testutil.SuperAdmin()})
	if err != nil {
		t.Fatalf("ScanSummary: %v", err)
	}
	if all.Total != 4 || all.ByRoute["North"] != 2 || all.ByRoute[""] != 1 {
		t.Errorf("admin summary: %+v", all)
	}

	sup, _ := w.scanner.ScanSummary(ctx, accesspolicy.Subject{Actor: w.sup.Actor(), LedTeamIDs: []string{"T2"}})
	if sup.Total != 1 || sup.Converted != 0 {
		t.Errorf("supervisor summary: %+v", sup)
	}
}

func TestScanLeaderboard(t *testing.T) {
	w := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rows, err := w.scanner.ScanLeaderboard(ctx, accesspolicy.Subject{Actor: testutil.SuperAdmin()}, 0)
	if err != nil {
		t.Fatalf("ScanLeaderboard: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: %+v", rows)
	}
	if rows[0].UserID != w.e1.ID || rows[0].Name != "Asha" || rows[0].Leads != 3 || rows[0].Converted != 2 {
		t.Errorf("first row: %+v", rows[0])
	}

	top, _ := w.scanner.ScanLeaderboard(ctx, accesspolicy.Subject{Actor: testutil.SuperAdmin()}, 1)
	if len(top) != 1 {
		t.Errorf("top 1: got %d rows", len(top))
	}
}
