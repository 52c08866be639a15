package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	base := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"plain", base, ""},
		{"validation", Validationf("leads.Add", "name is required"), KindValidation},
		{"conflict", Conflictf("users.Add", "email %q exists", "a@b.c"), KindConflict},
		{"not found", NotFoundf("leads.Update", "lead %s", "x"), KindNotFound},
		{"store", Store("leads.Get", base), KindStoreUnavailable},
		{"wrapped", fmt.Errorf("handler: %w", Validationf("op", "bad")), KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStore_PassesThroughClassified(t *testing.T) {
	orig := Conflictf("users.Add", "dup")
	if got := Store("outer", orig); got != orig {
		t.Errorf("Store() replaced a classified error: %v", got)
	}
	if Store("op", nil) != nil {
		t.Error("Store(nil) should be nil")
	}
}

func TestStore_Unwraps(t *testing.T) {
	base := errors.New("timeout")
	err := Store("leads.List", base)
	if !errors.Is(err, base) {
		t.Error("expected wrapped error to unwrap to base")
	}
	if !Is(err, KindStoreUnavailable) {
		t.Error("expected store_unavailable")
	}
}

func TestError_Message(t *testing.T) {
	err := Validationf("leads.Add", "phone is required")
	want := "leads.Add: validation: phone is required"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
