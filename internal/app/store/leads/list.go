// internal/app/store/leads/list.go
package leadstore

import (
	"context"
	"sort"
	"strings"

	"github.com/dalemusser/leadhub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/leadhub/internal/app/system/apperr"
	"github.com/dalemusser/leadhub/internal/app/system/docstore"
	"github.com/dalemusser/leadhub/internal/app/system/normalize"
	"github.com/dalemusser/leadhub/internal/app/system/paging"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

// Filters narrows a lead listing. Empty fields do not filter.
// Search is a case-insensitive substring match on name or phone; every
// other field is an exact match. Team matches team_id and Executive
// matches entered_by.
type Filters struct {
	Search    string
	Status    string
	LeadType  string
	Aura      string
	Course    string
	Route     string
	Team      string
	Executive string
}

func (f Filters) exact() []docstore.Cond {
	var conds []docstore.Cond
	add := func(field, v string) {
		if v != "" {
			conds = append(conds, docstore.Where(field, docstore.Eq, v))
		}
	}
	add(models.LeadFieldStatus, f.Status)
	add(models.LeadFieldLeadType, f.LeadType)
	add(models.LeadFieldAura, f.Aura)
	add(models.LeadFieldCourse, f.Course)
	add(models.LeadFieldRoute, f.Route)
	add(models.LeadFieldTeamID, f.Team)
	add(models.LeadFieldEnteredBy, f.Executive)
	return conds
}

// Match reports whether l satisfies every filter.
func (f Filters) Match(l models.Lead) bool {
	if f.Status != "" && l.Status != f.Status ||
		f.LeadType != "" && l.LeadType != f.LeadType ||
		f.Aura != "" && l.Aura != f.Aura ||
		f.Course != "" && l.Course != f.Course ||
		f.Route != "" && l.Route != f.Route ||
		f.Team != "" && l.TeamID != f.Team ||
		f.Executive != "" && l.EnteredBy != f.Executive {
		return false
	}
	q := strings.TrimSpace(f.Search)
	if q == "" {
		return true
	}
	fq := text.Fold(q)
	if strings.Contains(text.Fold(l.Name), fq) || strings.Contains(text.Fold(l.Phone), fq) {
		return true
	}
	if digits := normalize.Phone(q); digits != "" && strings.Contains(l.Phone, digits) {
		return true
	}
	return false
}

// Page is one page of a lead listing. NextCursor is empty at the end.
type Page struct {
	Data       []models.Lead `json:"data"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// List returns one page of the leads subject may see that match f,
// newest first (ties by id, which follows insertion order).
//
// The policy is applied before filters, sorting, and cursor resumption,
// so records outside the subject's view never influence paging. cursor is
// the NextCursor of the previous page, or "" for the first page. A cursor
// still resumes correctly if its record was deleted meanwhile.
// pageSize <= 0 uses the store default; larger sizes are never capped.
//
// Cost is proportional to the number of leads in the subject's scope.
func (s *Store) List(ctx context.Context, subject accesspolicy.Subject, cursor string, pageSize int, f Filters) (Page, error) {
	const op = "leads.List"
	size := paging.Size(pageSize, s.pageSize)

	var cur *paging.Cursor
	if cursor != "" {
		c, err := paging.DecodeCursor(cursor)
		if err != nil {
			return Page{}, apperr.Validationf(op, "invalid cursor")
		}
		cur = &c
	}

	leads, err := s.visible(ctx, subject, f, cur)
	if err != nil {
		return Page{}, apperr.Store(op, err)
	}

	start := 0
	if cur != nil {
		start = sort.Search(len(leads), func(i int) bool {
			return cur.Before(leads[i].CreatedAt, leads[i].ID)
		})
	}
	rows, more := paging.TrimPage(leads[start:], size)

	page := Page{Data: rows}
	if more && len(rows) > 0 {
		last := rows[len(rows)-1]
		page.NextCursor = paging.EncodeCursor(last.CreatedAt, last.ID)
	}
	if page.Data == nil {
		page.Data = []models.Lead{}
	}
	return page, nil
}

// Visible returns every lead subject may see that matches f, newest first.
// It scans the subject's whole scope.
func (s *Store) Visible(ctx context.Context, subject accesspolicy.Subject, f Filters) ([]models.Lead, error) {
	leads, err := s.visible(ctx, subject, f, nil)
	if err != nil {
		return nil, apperr.Store("leads.Visible", err)
	}
	return leads, nil
}

func (s *Store) visible(ctx context.Context, subject accesspolicy.Subject, f Filters, cur *paging.Cursor) ([]models.Lead, error) {
	scope := accesspolicy.LeadScopeFor(subject)
	if scope.None {
		return []models.Lead{}, nil
	}

	base := f.exact()
	if cur != nil {
		base = append(base, docstore.Where(models.LeadFieldCreatedAt, docstore.Lte, cur.CreatedAt))
	}

	var queries [][]docstore.Cond
	if scope.All {
		queries = append(queries, base)
	} else {
		if scope.EnteredBy != "" {
			queries = append(queries, append(clone(base), docstore.Where(models.LeadFieldEnteredBy, docstore.Eq, scope.EnteredBy)))
		}
		if len(scope.TeamIDs) > 0 {
			queries = append(queries, append(clone(base), docstore.Where(models.LeadFieldTeamID, docstore.In, scope.TeamIDs)))
		}
	}

	seen := make(map[string]bool)
	var out []models.Lead
	for _, where := range queries {
		docs, err := s.ds.List(ctx, models.CollLeads, docstore.Query{
			Where:   where,
			OrderBy: models.LeadFieldCreatedAt,
			Desc:    true,
		})
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			if seen[d.ID] {
				continue
			}
			seen[d.ID] = true
			var l models.Lead
			if err := docstore.Decode(d, &l); err != nil {
				return nil, err
			}
			if accesspolicy.CanSeeLead(subject, l) && f.Match(l) {
				out = append(out, l)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	if out == nil {
		out = []models.Lead{}
	}
	return out, nil
}

func clone(c []docstore.Cond) []docstore.Cond {
	return append([]docstore.Cond(nil), c...)
}
