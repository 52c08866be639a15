package csvutil

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestParseLeadsCSV_ValidRows(t *testing.T) {
	csv := `Name,Mobile,Lead Type,Village/City,Stream
Asha,9998887776,Student,Nagpur,Science
Ravi,9998887777,Other,,`

	result, err := ParseLeadsCSV(strings.NewReader(csv), DefaultParseOptions())
	if err != nil {
		t.Fatalf("ParseLeadsCSV() error = %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("ParseLeadsCSV() got %d rows, want 2", len(result.Rows))
	}
	if result.HasErrors() {
		t.Errorf("ParseLeadsCSV() unexpected errors: %v", result.Errors)
	}

	first := result.Rows[0]
	want := map[string]any{
		"name": "Asha", "phone": "9998887776", "lead_type": "Student",
		"village_city": "Nagpur", "stream": "Science",
	}
	for k, v := range want {
		if first[k] != v {
			t.Errorf("Row 0 %s = %v, want %v", k, first[k], v)
		}
	}
	if _, ok := result.Rows[1]["village_city"]; ok {
		t.Error("empty cells should be omitted")
	}
}

func TestParseLeadsCSV_BOMHandling(t *testing.T) {
	csv := "\ufeffPhone,Name\n9998887776,Asha"

	result, err := ParseLeadsCSV(strings.NewReader(csv), DefaultParseOptions())
	if err != nil {
		t.Fatalf("ParseLeadsCSV() error = %v", err)
	}
	if len(result.Rows) != 1 || result.Rows[0]["phone"] != "9998887776" {
		t.Errorf("ParseLeadsCSV() with BOM: got %v", result.Rows)
	}
}

func TestParseLeadsCSV_EmptyFile(t *testing.T) {
	result, err := ParseLeadsCSV(strings.NewReader(""), DefaultParseOptions())
	if err != nil {
		t.Fatalf("ParseLeadsCSV() error = %v", err)
	}
	if len(result.Rows) != 0 {
		t.Errorf("ParseLeadsCSV() got %d rows, want 0", len(result.Rows))
	}
}

func TestParseLeadsCSV_RequiresPhoneColumn(t *testing.T) {
	_, err := ParseLeadsCSV(strings.NewReader("Name,Email\nAsha,a@example.com"), DefaultParseOptions())
	if !errors.Is(err, ErrNoHeader) {
		t.Errorf("expected ErrNoHeader, got %v", err)
	}
}

func TestParseLeadsCSV_MissingPhoneAndBlankRows(t *testing.T) {
	csv := "Name,Phone\nAsha,\n,\nRavi,123\n"

	result, err := ParseLeadsCSV(strings.NewReader(csv), DefaultParseOptions())
	if err != nil {
		t.Fatalf("ParseLeadsCSV() error = %v", err)
	}
	if len(result.Rows) != 1 {
		t.Errorf("got %d rows, want 1", len(result.Rows))
	}
	if len(result.Errors) != 1 || result.Errors[0].Line != 2 || result.Errors[0].Reason != "missing phone" {
		t.Errorf("errors: got %+v", result.Errors)
	}
}

func TestParseLeadsCSV_MaxRows(t *testing.T) {
	var b strings.Builder
	b.WriteString("Phone\n")
	for i := 0; i < 4; i++ {
		fmt.Fprintf(&b, "%d\n", 1000+i)
	}
	_, err := ParseLeadsCSV(strings.NewReader(b.String()), ParseOptions{MaxRows: 3})
	if !errors.Is(err, ErrTooManyRows) {
		t.Errorf("expected ErrTooManyRows, got %v", err)
	}
}

func TestColumnField(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Full Name", "name"},
		{"  PHONE  ", "phone"},
		{"Origin Type", "origin_type"},
		{"Contact Person", "contact_person"},
		{"Parent's Occupation", "parent_s_occupation"},
		{"Entered By", ""},
		{"created_at", ""},
		{"_id", ""},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := ColumnField(tt.header); got != tt.want {
			t.Errorf("ColumnField(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestConstants(t *testing.T) {
	if MaxUploadSize <= 0 || MaxRows <= 0 {
		t.Errorf("limits must be positive: %d %d", MaxUploadSize, MaxRows)
	}
}
