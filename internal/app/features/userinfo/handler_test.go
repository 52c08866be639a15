package userinfo_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/leadhub/internal/app/features/userinfo"
	"github.com/dalemusser/leadhub/internal/testutil"
)

func TestServeUserInfo_Unauthenticated(t *testing.T) {
	router := userinfo.Routes(userinfo.NewHandler())

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest("GET", "/"))

	rec.AssertStatus(t, http.StatusOK)
	var response map[string]any
	rec.DecodeJSON(t, &response)
	if isAuth, ok := response["isAuthenticated"].(bool); !ok || isAuth {
		t.Errorf("isAuthenticated: got %v, want false", response["isAuthenticated"])
	}
	if name := response["name"]; name != "" {
		t.Errorf("name: got %q, want empty string", name)
	}
}

func TestServeUserInfo_Authenticated(t *testing.T) {
	router := userinfo.Routes(userinfo.NewHandler())

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.AsActor(testutil.NewRequest("GET", "/"), testutil.Supervisor("sup-1", "team-9")))

	rec.AssertStatus(t, http.StatusOK)
	var response map[string]any
	rec.DecodeJSON(t, &response)
	if isAuth, ok := response["isAuthenticated"].(bool); !ok || !isAuth {
		t.Errorf("isAuthenticated: got %v, want true", response["isAuthenticated"])
	}
	if response["id"] != "sup-1" || response["role"] != "Supervisor" || response["team_id"] != "team-9" {
		t.Errorf("actor fields: got %v", response)
	}
}
