// internal/app/store/leads/importexport.go
package leadstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/dalemusser/leadhub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/leadhub/internal/app/system/apperr"
	"github.com/dalemusser/leadhub/internal/app/system/docstore"
	"github.com/dalemusser/leadhub/internal/app/system/normalize"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Import defaults for fields a spreadsheet row left blank.
const (
	importName   = "Unknown"
	importOrigin = "Import"
)

// DefaultExportFields are the CSV columns used when ExportCSV gets none.
var DefaultExportFields = []string{
	models.LeadFieldName,
	models.LeadFieldPhone,
	models.LeadFieldLeadType,
	models.LeadFieldOriginType,
	models.LeadFieldStatus,
	"school",
	models.LeadFieldCreatedAt,
}

// Import bulk-creates leads from spreadsheet rows on behalf of actor.
//
// Rows are written in atomic chunks no larger than the store's batch limit.
// Blank names become "Unknown", lead type defaults to "Student", origin to
// "Import", status to "New" and aura to "Mild". Rows without a phone are
// skipped. Ownership is stamped exactly as in Add. A row whose phone is
// already stored, or appeared on an earlier row, is flagged is_duplicate;
// the check runs once per chunk. The number of leads written is returned
// even when a later chunk fails.
func (s *Store) Import(ctx context.Context, rows []map[string]any, actor models.Actor) (int, error) {
	const op = "leads.Import"
	if actor.ID == "" {
		return 0, apperr.Validationf(op, "actor is required")
	}

	chunk := s.ds.MaxBatchOps()
	written := 0
	seen := map[string]bool{}
	var pending []bson.M
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		stored, err := s.storedPhones(ctx, pending)
		if err != nil {
			return apperr.Store(op, err)
		}
		b := s.ds.Batch()
		for _, data := range pending {
			phone, _ := str(data, models.LeadFieldPhone)
			if stored[phone] || seen[phone] {
				data[models.LeadFieldIsDuplicate] = true
			}
			seen[phone] = true
			b.Set(models.CollLeads, docstore.NewID(), data)
		}
		if err := b.Commit(ctx); err != nil {
			return apperr.Store(op, err)
		}
		written += len(pending)
		pending = pending[:0]
		return nil
	}

	now := s.now()
	for _, row := range rows {
		data, ok := importRow(row)
		if !ok {
			continue
		}
		stampOwnership(data, actor, now)
		data[models.LeadFieldTimeline] = bson.A{models.TimelineEvent{
			Timestamp: now,
			ActorName: actor.Name,
			Kind:      models.EventCreate,
			Text:      "Imported",
		}}
		pending = append(pending, data)
		if len(pending) >= chunk {
			if err := flush(); err != nil {
				return written, err
			}
		}
	}
	if err := flush(); err != nil {
		return written, err
	}

	s.log.Info("leads imported", zap.String("actor", actor.ID), zap.Int("count", written))
	return written, nil
}

// storedPhones returns which phones of rows already belong to a stored lead.
func (s *Store) storedPhones(ctx context.Context, rows []bson.M) (map[string]bool, error) {
	phones := make([]string, 0, len(rows))
	for _, data := range rows {
		p, _ := str(data, models.LeadFieldPhone)
		phones = append(phones, p)
	}
	docs, err := s.ds.List(ctx, models.CollLeads, docstore.Query{
		Where: []docstore.Cond{docstore.Where(models.LeadFieldPhone, docstore.In, phones)},
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(docs))
	for _, d := range docs {
		if p, ok := d.Data[models.LeadFieldPhone].(string); ok {
			out[p] = true
		}
	}
	return out, nil
}

func importRow(row map[string]any) (bson.M, bool) {
	rawPhone, _ := str(row, models.LeadFieldPhone)
	phone := normalize.Phone(rawPhone)
	if phone == "" {
		return nil, false
	}
	data := bson.M{}
	for k, v := range row {
		if protectedFields[k] || k == models.LeadFieldIsDuplicate {
			continue
		}
		data[k] = v
	}
	rawName, _ := str(row, models.LeadFieldName)
	name := normalize.Name(rawName)
	if name == "" {
		name = importName
	}
	data[models.LeadFieldName] = name
	data[models.LeadFieldPhone] = phone

	defaults := map[string]string{
		models.LeadFieldLeadType:   models.LeadTypeStudent,
		models.LeadFieldOriginType: importOrigin,
		models.LeadFieldStatus:     models.StatusNew,
		models.LeadFieldAura:       models.AuraMild,
	}
	for k, def := range defaults {
		if v, _ := str(row, k); v == "" {
			data[k] = def
		}
	}
	if a, _ := str(data, models.LeadFieldAura); !models.ValidAura(a) {
		data[models.LeadFieldAura] = models.AuraMild
	}
	return data, true
}

// ExportCSV writes the leads subject may see that match f as CSV, newest
// first, with a header row of field names. fields selects columns; nil
// uses DefaultExportFields. It returns the number of data rows written.
func (s *Store) ExportCSV(ctx context.Context, w io.Writer, subject accesspolicy.Subject, f Filters, fields []string) (int, error) {
	const op = "leads.ExportCSV"
	if len(fields) == 0 {
		fields = DefaultExportFields
	}
	leads, err := s.Visible(ctx, subject, f)
	if err != nil {
		return 0, err
	}

	// UTF-8 BOM for Excel
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return 0, fmt.Errorf("%s: write BOM: %w", op, err)
	}
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(fields); err != nil {
		return 0, fmt.Errorf("%s: write header: %w", op, err)
	}

	rec := make([]string, len(fields))
	for _, l := range leads {
		m, err := docstore.Encode(l)
		if err != nil {
			return 0, apperr.Store(op, err)
		}
		m["id"] = l.ID
		for i, field := range fields {
			rec[i] = sanitizeCSVField(csvValue(m[field]))
		}
		if err := cw.Write(rec); err != nil {
			return 0, fmt.Errorf("%s: write row: %w", op, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("%s: flush: %w", op, err)
	}
	return len(leads), nil
}

func csvValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case primitive.DateTime:
		return t.Time().UTC().Format(time.RFC3339)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case bool:
		if t {
			return "true"
		}
		return "false"
	}
	return fmt.Sprint(v)
}

// sanitizeCSVField prevents formula injection in spreadsheet apps.
// Phone numbers keep their leading plus sign.
func sanitizeCSVField(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '-', '@':
		return "'" + s
	case '+':
		if normalize.Phone(s) != s {
			return "'" + s
		}
	}
	return s
}
