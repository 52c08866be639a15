// internal/app/system/paging/paging.go
package paging

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/waffle/pantry/pagination"
	"github.com/dalemusser/waffle/pantry/query"
)

// DefaultPageSize is used when a caller asks for pageSize <= 0.
const DefaultPageSize = 20

// ErrBadCursor is returned by DecodeCursor for tokens it did not produce.
var ErrBadCursor = errors.New("paging: malformed cursor")

// Size returns n, or def when n <= 0. There is no upper cap.
func Size(n, def int) int {
	if n > 0 {
		return n
	}
	if def > 0 {
		return def
	}
	return DefaultPageSize
}

// ParseLimit extracts the "limit" query parameter. Returns 0 (use the
// default) if not present or invalid.
func ParseLimit(r *http.Request) int {
	s := query.Get(r, "limit")
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// Cursor marks a position in a list sorted by (CreatedAt desc, ID desc).
// It carries the sort key as well as the id, so a page can resume even
// if the record it points at has since been deleted.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// cursorToken is the wire form of a Cursor.
type cursorToken struct {
	At int64  `json:"t"`
	ID string `json:"id"`
}

// EncodeCursor returns the opaque token for a record position.
// Timestamps are kept at millisecond precision, the precision the
// document store persists.
func EncodeCursor(createdAt time.Time, id string) string {
	tok, _ := pagination.EncodeCursor(cursorToken{At: createdAt.UnixMilli(), ID: id})
	return tok
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(token string) (Cursor, error) {
	var ct cursorToken
	if err := pagination.DecodeCursor(token, &ct); err != nil || ct.ID == "" {
		return Cursor{}, ErrBadCursor
	}
	return Cursor{CreatedAt: time.UnixMilli(ct.At).UTC(), ID: ct.ID}, nil
}

// Before reports whether the position (createdAt, id) sorts strictly
// after the cursor in newest-first order, i.e. belongs to a later page.
func (c Cursor) Before(createdAt time.Time, id string) bool {
	ts := createdAt.UnixMilli()
	cs := c.CreatedAt.UnixMilli()
	if ts != cs {
		return ts < cs
	}
	return id < c.ID
}

// TrimPage cuts rows (fetched with one row of look-ahead) to size and
// reports whether more rows exist.
func TrimPage[T any](rows []T, size int) ([]T, bool) {
	if len(rows) > size {
		return rows[:size], true
	}
	return rows, false
}
