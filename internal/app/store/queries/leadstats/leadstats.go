// Package leadstats computes lead statistics by scanning lead records.
//
// Every function here reads the whole candidate set and aggregates in
// process, so its cost grows linearly with the number of leads scanned.
// Callers that render dashboards should cache the results.
package leadstats

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/dalemusser/leadhub/internal/app/policy/accesspolicy"
	leadstore "github.com/dalemusser/leadhub/internal/app/store/leads"
	"github.com/dalemusser/leadhub/internal/app/system/apperr"
	"github.com/dalemusser/leadhub/internal/app/system/docstore"
	"github.com/dalemusser/leadhub/internal/domain/models"
)

// LeadSource yields the leads a subject may see.
type LeadSource interface {
	Visible(ctx context.Context, subject accesspolicy.Subject, f leadstore.Filters) ([]models.Lead, error)
}

// Scanner runs the statistics scans.
type Scanner struct {
	ds        docstore.Store
	leads     LeadSource
	converted string
	loc       *time.Location
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithConvertedStatus sets the status counted as a won lead.
func WithConvertedStatus(status string) Option {
	return func(s *Scanner) {
		if status != "" {
			s.converted = status
		}
	}
}

// WithLocation sets the time zone used for day-of-week bucketing.
func WithLocation(loc *time.Location) Option {
	return func(s *Scanner) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// New creates a Scanner. ds is read directly for per-team and per-user
// scans; leads supplies role-scoped sets for summaries.
func New(ds docstore.Store, leads LeadSource, opts ...Option) *Scanner {
	s := &Scanner{ds: ds, leads: leads, converted: models.StatusConverted, loc: time.UTC}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Stats aggregates a set of leads.
type Stats struct {
	Total     int            `json:"total"`
	Converted int            `json:"converted"`
	Hot       int            `json:"hot"`
	ByWeekday [7]int         `json:"by_weekday"` // index 0 is Sunday
	ByStatus  map[string]int `json:"by_status"`
}

func (s *Scanner) add(st *Stats, l models.Lead) {
	st.Total++
	if l.Status == s.converted {
		st.Converted++
	}
	if l.Aura == models.AuraHot {
		st.Hot++
	}
	st.ByWeekday[l.CreatedAt.In(s.loc).Weekday()]++
	st.ByStatus[l.Status]++
}

func (s *Scanner) scanWhere(ctx context.Context, op, field, value string) (Stats, error) {
	docs, err := s.ds.List(ctx, models.CollLeads, docstore.Query{
		Where: []docstore.Cond{docstore.Where(field, docstore.Eq, value)},
	})
	if err != nil {
		return Stats{}, apperr.Store(op, err)
	}
	st := Stats{ByStatus: map[string]int{}}
	for _, d := range docs {
		var l models.Lead
		if err := docstore.Decode(d, &l); err != nil {
			return Stats{}, apperr.Store(op, err)
		}
		s.add(&st, l)
	}
	return st, nil
}

// ScanTeamStats aggregates every lead stamped with teamID.
// Callers check the actor may see the team.
func (s *Scanner) ScanTeamStats(ctx context.Context, teamID string) (Stats, error) {
	return s.scanWhere(ctx, "leadstats.ScanTeamStats", models.LeadFieldTeamID, teamID)
}

// ScanUserStats aggregates every lead entered by userID.
// Callers check the actor may see the user.
func (s *Scanner) ScanUserStats(ctx context.Context, userID string) (Stats, error) {
	return s.scanWhere(ctx, "leadstats.ScanUserStats", models.LeadFieldEnteredBy, userID)
}

// Summary is the dashboard view of the leads a subject may see.
type Summary struct {
	Stats
	ByRoute map[string]int `json:"by_route"`
}

// ScanSummary aggregates the leads subject may see. Leads without a route
// count under "".
func (s *Scanner) ScanSummary(ctx context.Context, subject accesspolicy.Subject) (Summary, error) {
	leads, err := s.leads.Visible(ctx, subject, leadstore.Filters{})
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{Stats: Stats{ByStatus: map[string]int{}}, ByRoute: map[string]int{}}
	for _, l := range leads {
		s.add(&sum.Stats, l)
		sum.ByRoute[l.Route]++
	}
	return sum, nil
}

// LeaderboardRow is one author's totals.
type LeaderboardRow struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Leads     int    `json:"leads"`
	Converted int    `json:"converted"`
}

// ScanLeaderboard ranks the authors of the leads subject may see by lead
// count (then conversions, then name) and returns the top n. n <= 0
// returns every author.
func (s *Scanner) ScanLeaderboard(ctx context.Context, subject accesspolicy.Subject, n int) ([]LeaderboardRow, error) {
	const op = "leadstats.ScanLeaderboard"
	leads, err := s.leads.Visible(ctx, subject, leadstore.Filters{})
	if err != nil {
		return nil, err
	}
	rows := map[string]*LeaderboardRow{}
	for _, l := range leads {
		r := rows[l.EnteredBy]
		if r == nil {
			r = &LeaderboardRow{UserID: l.EnteredBy}
			rows[l.EnteredBy] = r
		}
		r.Leads++
		if l.Status == s.converted {
			r.Converted++
		}
	}

	out := make([]LeaderboardRow, 0, len(rows))
	for id, r := range rows {
		d, err := s.ds.Get(ctx, models.CollUsers, id)
		switch {
		case err == nil:
			if name, ok := d.Data[models.UserFieldName].(string); ok {
				r.Name = name
			}
		case !errors.Is(err, docstore.ErrNotFound):
			return nil, apperr.Store(op, err)
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Leads != b.Leads {
			return a.Leads > b.Leads
		}
		if a.Converted != b.Converted {
			return a.Converted > b.Converted
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.UserID < b.UserID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}
