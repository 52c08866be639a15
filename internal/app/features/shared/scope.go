// Package shared holds helpers used by several JSON features.
package shared

import (
	"context"
	"net/http"

	"github.com/dalemusser/leadhub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/leadhub/internal/app/system/auth"
	"github.com/dalemusser/leadhub/internal/app/system/respond"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"go.uber.org/zap"
)

// SubjectResolver turns an actor into a policy subject.
type SubjectResolver interface {
	SubjectFor(ctx context.Context, actor models.Actor) (accesspolicy.Subject, error)
}

// Subject resolves the signed-in actor's subject. On failure it writes
// the response and returns ok=false.
func Subject(ctx context.Context, w http.ResponseWriter, r *http.Request, teams SubjectResolver, log *zap.Logger) (accesspolicy.Subject, bool) {
	actor, ok := auth.CurrentActor(r)
	if !ok {
		respond.Problem(w, http.StatusUnauthorized, "unauthorized", "sign in required")
		return accesspolicy.Subject{}, false
	}
	sub, err := teams.SubjectFor(ctx, actor)
	if err != nil {
		respond.Error(w, log, err)
		return accesspolicy.Subject{}, false
	}
	return sub, true
}

// Forbidden writes a 403 envelope.
func Forbidden(w http.ResponseWriter) {
	respond.Problem(w, http.StatusForbidden, "forbidden", "you do not have access to this record")
}
