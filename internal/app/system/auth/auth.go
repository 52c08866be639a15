// Package auth reads the signed-in actor from the session cookie.
//
// Sign-in itself is handled by an external login service that writes the
// same gorilla session; this package only loads the actor into the request
// context and guards routes. SignIn exists for local development and tests.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/leadhub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
	userName  = "user_name"
	userRole  = "user_role"
	teamIDKey = "team_id"
)

// SessionManager owns the cookie store used for actor sessions.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger
}

// NewSessionManager builds a cookie-backed session manager.
//
// In production (secure=true) cookies are Secure with SameSite=None; over
// plain http on localhost use secure=false so browsers accept them.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, errors.New("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended", zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "leadhub-session"
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		store.Options.SameSite = http.SameSiteNoneMode
	}

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// Name is the session cookie name.
func (m *SessionManager) Name() string { return m.name }

type ctxKey string

const actorKey ctxKey = "actor"

// CurrentActor returns the actor loaded by LoadActor.
func CurrentActor(r *http.Request) (models.Actor, bool) {
	return ActorFrom(r.Context())
}

// ActorFrom returns the actor stored in ctx.
func ActorFrom(ctx context.Context) (models.Actor, bool) {
	a, ok := ctx.Value(actorKey).(models.Actor)
	return a, ok
}

// WithActor returns r carrying a. Handler tests use it to skip the cookie.
func WithActor(r *http.Request, a models.Actor) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), actorKey, a))
}

// LoadActor injects the session's actor into the request context.
// Sessions with an unknown role are ignored.
func (m *SessionManager) LoadActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.store.Get(r, m.name)
		if err != nil {
			m.log.Debug("session decode failed", zap.Error(err))
		}
		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			role, ok := models.ParseRole(getString(sess, userRole))
			id := getString(sess, userIDKey)
			if ok && id != "" {
				r = WithActor(r, models.Actor{
					ID:     id,
					Name:   getString(sess, userName),
					Role:   role,
					TeamID: getString(sess, teamIDKey),
				})
			} else {
				m.log.Warn("session with unusable actor", zap.String("user_id", id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// SignIn stores a in the session cookie.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, a models.Actor) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = a.ID
	sess.Values[userName] = a.Name
	sess.Values[userRole] = string(a.Role)
	sess.Values[teamIDKey] = a.TeamID
	return sess.Save(r, w)
}

// SignOut clears the session cookie.
func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// RequireActor rejects requests without a signed-in actor with 401.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentActor(r); !ok {
			deny(w, http.StatusUnauthorized, "unauthorized", "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireManager allows only actors who may administer users, teams,
// settings, and backups. Anonymous callers get 401, others 403.
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a, ok := CurrentActor(r)
		if !ok {
			deny(w, http.StatusUnauthorized, "unauthorized", "sign in required")
			return
		}
		if !accesspolicy.CanManage(a) {
			deny(w, http.StatusForbidden, "forbidden", "administrator role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole allows only the listed roles.
func RequireRole(allowed ...models.Role) func(http.Handler) http.Handler {
	set := make(map[models.Role]bool, len(allowed))
	for _, role := range allowed {
		set[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := CurrentActor(r)
			if !ok {
				deny(w, http.StatusUnauthorized, "unauthorized", "sign in required")
				return
			}
			if !set[a.Role] {
				deny(w, http.StatusForbidden, "forbidden", "role not permitted")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": msg})
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
