// Package accesspolicy decides which leads, teams, and users an actor may see.
//
// Visibility rules:
//   - SuperAdmin sees every lead, team, and user
//   - Supervisor sees leads of the teams they lead plus leads they entered,
//     the teams they lead, and the users on those teams plus themselves
//   - Executive sees only leads they entered, their own team, and themselves
//   - Any other role, or an actor without an id, sees nothing
//
// The package is pure: it reads no storage. Callers resolve the teams a
// supervisor leads (see teamstore.SubjectFor) and pass them in a Subject.
// Every repository consults this package before data leaves it.
package accesspolicy

import (
	"slices"

	"github.com/dalemusser/leadhub/internal/domain/models"
)

// Subject is an actor plus the ids of the teams the actor supervises.
type Subject struct {
	Actor      models.Actor
	LedTeamIDs []string
}

// LeadScope describes the candidate queries that cover every lead a
// subject may see. The union of leads with EnteredBy == EnteredBy and
// leads whose team is in TeamIDs over-approximates the visible set when
// All is false; CanSeeLead is always re-applied to the candidates.
type LeadScope struct {
	None      bool
	All       bool
	EnteredBy string
	TeamIDs   []string
}

type rules struct {
	lead      func(s Subject, l models.Lead) bool
	team      func(s Subject, t models.Team) bool
	user      func(s Subject, u models.User) bool
	leadScope func(s Subject) LeadScope
	manage    bool // may administer users, teams, settings, backups
}

var table = map[models.Role]rules{
	models.RoleSuperAdmin: {
		lead:      func(Subject, models.Lead) bool { return true },
		team:      func(Subject, models.Team) bool { return true },
		user:      func(Subject, models.User) bool { return true },
		leadScope: func(Subject) LeadScope { return LeadScope{All: true} },
		manage:    true,
	},
	models.RoleSupervisor: {
		lead: func(s Subject, l models.Lead) bool {
			return l.EnteredBy == s.Actor.ID || slices.Contains(s.LedTeamIDs, l.TeamID)
		},
		team: func(s Subject, t models.Team) bool {
			return t.SupervisorID != "" && t.SupervisorID == s.Actor.ID
		},
		user: func(s Subject, u models.User) bool {
			return u.ID == s.Actor.ID || slices.Contains(s.LedTeamIDs, u.TeamID)
		},
		leadScope: func(s Subject) LeadScope {
			return LeadScope{EnteredBy: s.Actor.ID, TeamIDs: slices.Clone(s.LedTeamIDs)}
		},
	},
	models.RoleExecutive: {
		lead: func(s Subject, l models.Lead) bool { return l.EnteredBy == s.Actor.ID },
		team: func(s Subject, t models.Team) bool {
			return s.Actor.TeamID != "" && t.ID == s.Actor.TeamID
		},
		user:      func(s Subject, u models.User) bool { return u.ID == s.Actor.ID },
		leadScope: func(s Subject) LeadScope { return LeadScope{EnteredBy: s.Actor.ID} },
	},
}

func lookup(s Subject) (rules, bool) {
	if s.Actor.ID == "" {
		return rules{}, false
	}
	r, ok := table[s.Actor.Role]
	return r, ok
}

// CanSeeLead reports whether s may see l.
func CanSeeLead(s Subject, l models.Lead) bool {
	r, ok := lookup(s)
	return ok && r.lead(s, l)
}

// CanSeeTeam reports whether s may see t.
func CanSeeTeam(s Subject, t models.Team) bool {
	r, ok := lookup(s)
	return ok && r.team(s, t)
}

// CanSeeUser reports whether s may see u.
func CanSeeUser(s Subject, u models.User) bool {
	r, ok := lookup(s)
	return ok && r.user(s, u)
}

// LeadScopeFor returns the candidate scope for lead queries.
func LeadScopeFor(s Subject) LeadScope {
	r, ok := lookup(s)
	if !ok {
		return LeadScope{None: true}
	}
	return r.leadScope(s)
}

// CanManage reports whether the actor may administer users, teams,
// settings, and backups.
func CanManage(a models.Actor) bool {
	r, ok := lookup(Subject{Actor: a})
	return ok && r.manage
}

// FilterLeads returns the leads s may see, preserving order.
func FilterLeads(s Subject, leads []models.Lead) []models.Lead {
	out := leads[:0:0]
	for _, l := range leads {
		if CanSeeLead(s, l) {
			out = append(out, l)
		}
	}
	return out
}

// FilterTeams returns the teams s may see, preserving order.
func FilterTeams(s Subject, teams []models.Team) []models.Team {
	out := teams[:0:0]
	for _, t := range teams {
		if CanSeeTeam(s, t) {
			out = append(out, t)
		}
	}
	return out
}

// FilterUsers returns the users s may see, preserving order.
func FilterUsers(s Subject, users []models.User) []models.User {
	out := users[:0:0]
	for _, u := range users {
		if CanSeeUser(s, u) {
			out = append(out, u)
		}
	}
	return out
}
