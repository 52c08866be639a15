// Package respond writes JSON responses and maps repository errors to
// HTTP status codes.
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/leadhub/internal/app/system/apperr"
	"github.com/dalemusser/leadhub/internal/app/system/limits"
	"go.uber.org/zap"
)

// Body is the error envelope.
type Body struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Problem writes an error envelope.
func Problem(w http.ResponseWriter, status int, code, msg string) {
	JSON(w, status, Body{Error: code, Message: msg})
}

// Status maps an error kind to an HTTP status.
func Status(k apperr.Kind) int {
	switch k {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Error writes err as an envelope. Unclassified and store errors are
// logged; their details are not sent to the client.
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	status := Status(kind)
	var ae *apperr.Error
	switch {
	case errors.As(err, &ae) && kind != apperr.KindStoreUnavailable:
		Problem(w, status, string(kind), ae.Msg)
	case kind == apperr.KindStoreUnavailable:
		log.Error("store unavailable", zap.Error(err))
		Problem(w, status, string(kind), "the data store is unavailable, try again")
	default:
		log.Error("unhandled error", zap.Error(err))
		Problem(w, status, "internal", "internal error")
	}
}

// Decode reads a JSON body into v. Failures are returned as validation
// errors so they can go straight to Error.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	const op = "request.Decode"
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validationf(op, "request body is empty")
		}
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return apperr.Validationf(op, "request body exceeds %d bytes", limits.MaxJSONBody)
		}
		return apperr.Validationf(op, "invalid JSON: %v", err)
	}
	return nil
}
