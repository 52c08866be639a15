package paging

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/pagination"
)

func TestSize(t *testing.T) {
	tests := []struct {
		n, def, want int
	}{
		{0, 0, DefaultPageSize},
		{-5, 0, DefaultPageSize},
		{0, 50, 50},
		{7, 50, 7},
		{100000, 20, 100000}, // no cap
	}
	for _, tt := range tests {
		if got := Size(tt.n, tt.def); got != tt.want {
			t.Errorf("Size(%d, %d) = %d, want %d", tt.n, tt.def, got, tt.want)
		}
	}
}

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2024, 2, 3, 4, 5, 6, 789000000, time.UTC)
	tok := EncodeCursor(at, "0190abcd-id")

	c, err := DecodeCursor(tok)
	if err != nil {
		t.Fatalf("DecodeCursor: %v", err)
	}
	if !c.CreatedAt.Equal(at) || c.ID != "0190abcd-id" {
		t.Errorf("decoded %+v", c)
	}
}

func TestDecodeCursor_Malformed(t *testing.T) {
	for _, tok := range []string{"", "!!!", "bm9waXBl", EncodeCursor(time.Now(), "")} {
		if _, err := DecodeCursor(tok); !errors.Is(err, ErrBadCursor) {
			t.Errorf("DecodeCursor(%q) err = %v, want ErrBadCursor", tok, err)
		}
	}
}

func TestDecodeCursor_WireForm(t *testing.T) {
	tok, err := pagination.EncodeCursor(map[string]any{"t": int64(1700000000123), "id": "abc"})
	if err != nil {
		t.Fatal(err)
	}
	c, err := DecodeCursor(tok)
	if err != nil {
		t.Fatalf("DecodeCursor: %v", err)
	}
	if c.CreatedAt.UnixMilli() != 1700000000123 || c.ID != "abc" {
		t.Errorf("decoded %+v", c)
	}
}

func TestCursorBefore(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := Cursor{CreatedAt: at, ID: "m"}

	tests := []struct {
		name string
		at   time.Time
		id   string
		want bool
	}{
		{"older", at.Add(-time.Second), "z", true},
		{"newer", at.Add(time.Second), "a", false},
		{"same time lower id", at, "a", true},
		{"same time higher id", at, "z", false},
		{"the cursor record itself", at, "m", false},
		{"sub-millisecond difference ignored", at.Add(300 * time.Microsecond), "a", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Before(tt.at, tt.id); got != tt.want {
				t.Errorf("Before() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTrimPage(t *testing.T) {
	rows, more := TrimPage([]int{1, 2, 3}, 3)
	if len(rows) != 3 || more {
		t.Errorf("exact page: %v %v", rows, more)
	}
	rows, more = TrimPage([]int{1, 2, 3, 4}, 3)
	if len(rows) != 3 || !more {
		t.Errorf("look-ahead page: %v %v", rows, more)
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		url  string
		want int
	}{
		{"/leads", 0},
		{"/leads?limit=25", 25},
		{"/leads?limit=0", 0},
		{"/leads?limit=abc", 0},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", tt.url, nil)
		if got := ParseLimit(r); got != tt.want {
			t.Errorf("ParseLimit(%s) = %d, want %d", tt.url, got, tt.want)
		}
	}
}
