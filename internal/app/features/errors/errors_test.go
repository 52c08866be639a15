package errors_test

import (
	"net/http"
	"testing"

	uierrors "github.com/dalemusser/leadhub/internal/app/features/errors"
	"github.com/dalemusser/leadhub/internal/testutil"
)

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := uierrors.NewHandler()

	rec := testutil.NewRecorder()
	h.NotFound(rec, testutil.NewRequest("GET", "/nope"))
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertContains(t, `"error":"not_found"`)

	rec = testutil.NewRecorder()
	h.MethodNotAllowed(rec, testutil.NewRequest("PUT", "/api/leads"))
	rec.AssertStatus(t, http.StatusMethodNotAllowed)
	rec.AssertContains(t, "PUT is not supported")
}

func TestRecoverer(t *testing.T) {
	h := uierrors.NewHandler()
	boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := testutil.NewRecorder()
	h.Recoverer(boom).ServeHTTP(rec, testutil.NewRequest("GET", "/"))
	rec.AssertStatus(t, http.StatusInternalServerError)
	rec.AssertContains(t, `"error":"internal"`)
}
