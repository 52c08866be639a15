// internal/app/features/leads/import.go
package leads

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/dalemusser/leadhub/internal/app/system/auth"
	"github.com/dalemusser/leadhub/internal/app/system/csvutil"
	"github.com/dalemusser/leadhub/internal/app/system/respond"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
)

type importInput struct {
	Rows []map[string]any `json:"rows"`
}

type importResult struct {
	Imported int                `json:"imported"`
	Rejected []csvutil.RowError `json:"rejected,omitempty"`
}

// HandleImport handles POST /leads/import.
//
// The body is either JSON {"rows": [{...}, ...]} or a CSV file (text/csv,
// or multipart/form-data with a "file" part). Leads are owned by the
// caller. Rows without a phone are skipped and, for CSV, reported.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "leads import")
	defer cancel()

	actor, _ := auth.CurrentActor(r)

	var (
		rows     []map[string]any
		rejected []csvutil.RowError
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case mediaType == "text/csv" || strings.HasPrefix(mediaType, "multipart/"):
		parsed, ok := h.parseCSV(w, r, mediaType)
		if !ok {
			return
		}
		rows, rejected = parsed.Rows, parsed.Errors
	default:
		var in importInput
		if err := respond.Decode(w, r, &in); err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		if len(in.Rows) > csvutil.MaxRows {
			respond.Problem(w, http.StatusBadRequest, "validation", "too many rows")
			return
		}
		rows = in.Rows
	}

	n, err := h.Leads.Import(ctx, rows, actor)
	if n > 0 {
		h.Audit.LeadsImported(ctx, r, actor, n)
	}
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, importResult{Imported: n, Rejected: rejected})
}

func (h *Handler) parseCSV(w http.ResponseWriter, r *http.Request, mediaType string) (csvutil.LeadResult, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, csvutil.MaxUploadSize)
	body := r.Body
	if strings.HasPrefix(mediaType, "multipart/") {
		file, _, err := r.FormFile("file")
		if err != nil {
			respond.Problem(w, http.StatusBadRequest, "validation", "a CSV file is required in the \"file\" field")
			return csvutil.LeadResult{}, false
		}
		defer file.Close()
		body = file
	}

	parsed, err := csvutil.ParseLeadsCSV(body, csvutil.DefaultParseOptions())
	if err != nil {
		var mbe *http.MaxBytesError
		switch {
		case errors.As(err, &mbe):
			respond.Problem(w, http.StatusRequestEntityTooLarge, "validation", "file is too large")
		case errors.Is(err, csvutil.ErrTooManyRows), errors.Is(err, csvutil.ErrNoHeader):
			respond.Problem(w, http.StatusBadRequest, "validation", err.Error())
		default:
			respond.Problem(w, http.StatusBadRequest, "validation", "could not read CSV: "+err.Error())
		}
		return csvutil.LeadResult{}, false
	}
	return parsed, true
}
