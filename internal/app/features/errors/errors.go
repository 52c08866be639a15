// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/leadhub/internal/app/system/respond"
)

// Handler is the errors feature handler. It writes JSON envelopes for
// requests the router could not route.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound is the router's fallback for unknown paths.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	respond.Problem(w, http.StatusNotFound, "not_found", "no route for "+r.Method+" "+r.URL.Path)
}

// MethodNotAllowed is the router's fallback for a known path with the
// wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respond.Problem(w, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" is not supported here")
}

// Recoverer turns a panic in a handler into a 500 envelope.
func (h *Handler) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				respond.Problem(w, http.StatusInternalServerError, "internal", "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
