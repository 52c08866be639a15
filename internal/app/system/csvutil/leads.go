// internal/app/system/csvutil/leads.go
package csvutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dalemusser/leadhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

// ErrTooManyRows is returned when a file has more data rows than allowed.
var ErrTooManyRows = errors.New("csv has too many rows")

// ErrNoHeader is returned when the first row does not name a phone column.
var ErrNoHeader = errors.New("csv header must include a phone column")

// RowError describes a rejected data row.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ParseOptions configures ParseLeadsCSV.
type ParseOptions struct {
	MaxRows int
}

// DefaultParseOptions returns the upload limits.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{MaxRows: MaxRows}
}

// LeadResult holds parsed rows keyed by lead field name.
type LeadResult struct {
	Rows    []map[string]any
	Errors  []RowError
	Columns []string // lead field per header column; "" for ignored columns
}

// HasErrors returns true if any row was rejected.
func (r *LeadResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// headerAliases maps folded header labels to lead fields. Labels not
// listed fall back to snake_case of the header text.
var headerAliases = map[string]string{
	"name":           models.LeadFieldName,
	"full name":      models.LeadFieldName,
	"student name":   models.LeadFieldName,
	"phone":          models.LeadFieldPhone,
	"phone number":   models.LeadFieldPhone,
	"mobile":         models.LeadFieldPhone,
	"contact":        models.LeadFieldPhone,
	"lead type":      models.LeadFieldLeadType,
	"type":           models.LeadFieldLeadType,
	"status":         models.LeadFieldStatus,
	"aura":           models.LeadFieldAura,
	"origin":         models.LeadFieldOriginType,
	"origin type":    models.LeadFieldOriginType,
	"source":         models.LeadFieldOriginType,
	"route":          models.LeadFieldRoute,
	"school":         "school",
	"institute":      "institute",
	"course":         models.LeadFieldCourse,
	"class":          "class",
	"contact person": "contact_person",
	"village":        "village_city",
	"village/city":   "village_city",
	"city":           "village_city",
	"notes":          "notes",
}

// ignoredFields are never imported from a file: ownership and history
// are stamped by the repository.
var ignoredFields = map[string]bool{
	"id": true, "_id": true,
	models.LeadFieldEnteredBy: true, models.LeadFieldTeamID: true,
	models.LeadFieldCreatedAt: true, models.LeadFieldUpdatedAt: true,
	models.LeadFieldTimeline: true, models.LeadFieldIsDuplicate: true,
}

// ColumnField maps a header cell to a lead field name.
func ColumnField(header string) string {
	h := strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	if h == "" {
		return ""
	}
	if f, ok := headerAliases[text.Fold(h)]; ok {
		return f
	}
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "_"):
			b.WriteByte('_')
		}
	}
	f := strings.TrimSuffix(b.String(), "_")
	if ignoredFields[f] || strings.ContainsAny(f, ".$") {
		return ""
	}
	return f
}

// ParseLeadsCSV reads a header row and the data rows beneath it. Each
// row becomes a map of lead field to trimmed cell text; empty cells are
// omitted. Rows without a phone are reported in Errors and left out of
// Rows. Completely blank rows are skipped silently.
func ParseLeadsCSV(r io.Reader, opts ParseOptions) (LeadResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var result LeadResult
	header, err := reader.Read()
	if err == io.EOF {
		return result, nil
	}
	if err != nil {
		return result, err
	}

	hasPhone := false
	for _, h := range header {
		f := ColumnField(h)
		result.Columns = append(result.Columns, f)
		if f == models.LeadFieldPhone {
			hasPhone = true
		}
	}
	if !hasPhone {
		return result, ErrNoHeader
	}

	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Errors = append(result.Errors, RowError{Line: line, Reason: err.Error()})
			continue
		}
		row := map[string]any{}
		for i, cell := range rec {
			if i >= len(result.Columns) || result.Columns[i] == "" {
				continue
			}
			if v := strings.TrimSpace(cell); v != "" {
				row[result.Columns[i]] = v
			}
		}
		if len(row) == 0 {
			continue
		}
		if _, ok := row[models.LeadFieldPhone]; !ok {
			result.Errors = append(result.Errors, RowError{Line: line, Reason: "missing phone"})
			continue
		}
		if opts.MaxRows > 0 && len(result.Rows) >= opts.MaxRows {
			return result, fmt.Errorf("%w (max %d)", ErrTooManyRows, opts.MaxRows)
		}
		result.Rows = append(result.Rows, row)
	}
	return result, nil
}
