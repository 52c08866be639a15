package health_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/dalemusser/leadhub/internal/app/features/health"
	"github.com/dalemusser/leadhub/internal/app/system/docstore"
	"github.com/dalemusser/leadhub/internal/testutil"
	"go.uber.org/zap"
)

type downStore struct {
	docstore.Store
}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestServe_DatabaseConnected(t *testing.T) {
	handler := health.NewHandler(testutil.NewStore(t), zap.NewNop())

	rec := testutil.NewRecorder()
	handler.Serve(rec, testutil.NewRequest("GET", "/health"))

	rec.AssertStatus(t, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type: got %q", ct)
	}

	var response struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	rec.DecodeJSON(t, &response)
	if response.Status != "ok" || response.Database != "connected" {
		t.Errorf("response: got %+v", response)
	}
}

func TestServe_DatabaseDown(t *testing.T) {
	router := health.Routes(health.NewHandler(downStore{}, zap.NewNop()))

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest("GET", "/"))

	rec.AssertStatus(t, http.StatusServiceUnavailable)
	rec.AssertContains(t, `"database":"disconnected"`)
	rec.AssertContains(t, "connection refused")
}
