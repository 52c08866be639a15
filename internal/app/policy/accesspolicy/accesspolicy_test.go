package accesspolicy

import (
	"testing"

	"github.com/dalemusser/leadhub/internal/domain/models"
)

var (
	superAdmin = Subject{Actor: models.Actor{ID: "a1", Role: models.RoleSuperAdmin}}
	supervisor = Subject{Actor: models.Actor{ID: "s1", Role: models.RoleSupervisor}, LedTeamIDs: []string{"T1"}}
	executive  = Subject{Actor: models.Actor{ID: "u1", Role: models.RoleExecutive, TeamID: "T1"}}
	otherExec  = Subject{Actor: models.Actor{ID: "u2", Role: models.RoleExecutive, TeamID: "T2"}}
)

func TestCanSeeLead(t *testing.T) {
	tests := []struct {
		name string
		s    Subject
		lead models.Lead
		want bool
	}{
		{"superadmin any", superAdmin, models.Lead{EnteredBy: "x", TeamID: "T9"}, true},
		{"supervisor led team", supervisor, models.Lead{EnteredBy: "u1", TeamID: "T1"}, true},
		{"supervisor own entry", supervisor, models.Lead{EnteredBy: "s1", TeamID: models.Unassigned}, true},
		{"supervisor other team", supervisor, models.Lead{EnteredBy: "u2", TeamID: "T2"}, false},
		{"executive own", executive, models.Lead{EnteredBy: "u1", TeamID: "T1"}, true},
		{"executive teammate", executive, models.Lead{EnteredBy: "u3", TeamID: "T1"}, false},
		{"executive other", otherExec, models.Lead{EnteredBy: "u1", TeamID: "T1"}, false},
		{"unknown role", Subject{Actor: models.Actor{ID: "z", Role: "Intern"}}, models.Lead{EnteredBy: "z"}, false},
		{"empty actor id", Subject{Actor: models.Actor{Role: models.RoleSuperAdmin}}, models.Lead{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanSeeLead(tt.s, tt.lead); got != tt.want {
				t.Errorf("CanSeeLead() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanSeeTeam(t *testing.T) {
	t1 := models.Team{ID: "T1", SupervisorID: "s1"}
	t2 := models.Team{ID: "T2", SupervisorID: "s2"}
	t3 := models.Team{ID: "T3"}

	tests := []struct {
		name string
		s    Subject
		team models.Team
		want bool
	}{
		{"superadmin", superAdmin, t3, true},
		{"supervisor own", supervisor, t1, true},
		{"supervisor other", supervisor, t2, false},
		{"supervisor unsupervised", supervisor, t3, false},
		{"executive own team", executive, t1, true},
		{"executive other team", executive, t2, false},
		{"executive no team", Subject{Actor: models.Actor{ID: "u9", Role: models.RoleExecutive}}, t3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanSeeTeam(tt.s, tt.team); got != tt.want {
				t.Errorf("CanSeeTeam() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanSeeUser(t *testing.T) {
	tests := []struct {
		name string
		s    Subject
		user models.User
		want bool
	}{
		{"superadmin", superAdmin, models.User{ID: "x"}, true},
		{"supervisor self", supervisor, models.User{ID: "s1", TeamID: ""}, true},
		{"supervisor member", supervisor, models.User{ID: "u1", TeamID: "T1"}, true},
		{"supervisor non-member", supervisor, models.User{ID: "u2", TeamID: "T2"}, false},
		{"executive self", executive, models.User{ID: "u1"}, true},
		{"executive teammate", executive, models.User{ID: "u3", TeamID: "T1"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanSeeUser(tt.s, tt.user); got != tt.want {
				t.Errorf("CanSeeUser() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLeadScopeFor(t *testing.T) {
	if sc := LeadScopeFor(superAdmin); !sc.All {
		t.Errorf("superadmin scope = %+v", sc)
	}
	sc := LeadScopeFor(supervisor)
	if sc.All || sc.None || sc.EnteredBy != "s1" || len(sc.TeamIDs) != 1 || sc.TeamIDs[0] != "T1" {
		t.Errorf("supervisor scope = %+v", sc)
	}
	sc = LeadScopeFor(executive)
	if sc.EnteredBy != "u1" || len(sc.TeamIDs) != 0 {
		t.Errorf("executive scope = %+v", sc)
	}
	if sc := LeadScopeFor(Subject{Actor: models.Actor{ID: "x", Role: "Guest"}}); !sc.None {
		t.Errorf("unknown role scope = %+v", sc)
	}
}

func TestCanManage(t *testing.T) {
	if !CanManage(superAdmin.Actor) {
		t.Error("superadmin should manage")
	}
	if CanManage(supervisor.Actor) || CanManage(executive.Actor) {
		t.Error("only superadmin manages")
	}
}

// Scenario: supervisor S1 leads T1 only; T2's leads stay hidden.
func TestFilterLeads_SupervisorScope(t *testing.T) {
	leads := []models.Lead{
		{ID: "1", EnteredBy: "u1", TeamID: "T1"},
		{ID: "2", EnteredBy: "s1", TeamID: models.Unassigned},
		{ID: "3", EnteredBy: "u2", TeamID: "T2"},
	}
	got := FilterLeads(supervisor, leads)
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Errorf("FilterLeads = %+v", got)
	}
	if len(leads) != 3 || leads[2].ID != "3" {
		t.Error("input slice was modified")
	}
}
