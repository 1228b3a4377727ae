// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

// Package httperr is the error boundary of the API. Handlers return errors
// and this package turns them into the JSON envelope
// {"success": false, "message": ...} with a matching status code.
package httperr

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/vecinity/vecinity-api/internal/db"
	"github.com/vecinity/vecinity-api/internal/i18n"
	"github.com/vecinity/vecinity-api/internal/logging"
)

// Error is an error with an HTTP status and a client-facing message.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error with an explicit status and message.
func New(status int, message string, cause error) *Error {
	return &Error{Status: status, Message: message, Err: cause}
}

// RateLimitExceeded is returned when a client runs out of request budget.
func RateLimitExceeded() *Error {
	return &Error{Status: http.StatusTooManyRequests, Message: i18n.T("rate_limited")}
}

// PayloadTooLarge is returned when a request body exceeds the size cap.
func PayloadTooLarge(cause error) *Error {
	return &Error{Status: http.StatusRequestEntityTooLarge, Message: i18n.T("payload_too_large"), Err: cause}
}

// RouteNotFound is returned when no route matches.
func RouteNotFound() *Error {
	return &Error{Status: http.StatusNotFound, Message: i18n.T("route_not_found")}
}

// MethodNotAllowed is returned when a path exists but not for the method.
func MethodNotAllowed() *Error {
	return &Error{Status: http.StatusMethodNotAllowed, Message: i18n.T("method_not_allowed")}
}

// BadRequest wraps a validation failure.
func BadRequest(message string, cause error) *Error {
	if message == "" {
		message = i18n.T("invalid_body")
	}
	return &Error{Status: http.StatusBadRequest, Message: message, Err: cause}
}

// Unauthorized is returned on failed authentication.
func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message}
}

// NotFound is returned when a resource does not exist.
func NotFound(message string) *Error {
	if message == "" {
		message = i18n.T("not_found")
	}
	return &Error{Status: http.StatusNotFound, Message: message}
}

// Conflict is returned when a resource already exists.
func Conflict(message string) *Error {
	if message == "" {
		message = i18n.T("duplicate")
	}
	return &Error{Status: http.StatusConflict, Message: message}
}

// Internal wraps an unexpected failure.
func Internal(cause error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: i18n.T("internal_error"), Err: cause}
}

var exposeCauses atomic.Bool

// SetExposeCauses controls whether 5xx envelopes carry the underlying
// error text in an "error" field. It is enabled in development.
func SetExposeCauses(v bool) { exposeCauses.Store(v) }

// From converts any error into an *Error. Storage sentinels map to 404 and
// 409; everything else becomes a 500.
func From(err error) *Error {
	var he *Error
	if errors.As(err, &he) {
		return he
	}
	switch {
	case errors.Is(err, db.ErrNotFound):
		return &Error{Status: http.StatusNotFound, Message: i18n.T("not_found"), Err: err}
	case errors.Is(err, db.ErrDuplicate):
		return &Error{Status: http.StatusConflict, Message: i18n.T("duplicate"), Err: err}
	}
	return Internal(err)
}

// Envelope is the body written for every error response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Write renders err as a JSON envelope.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	he := From(err)
	env := Envelope{Success: false, Message: he.Message}
	if he.Status >= http.StatusInternalServerError {
		logging.Named("http").Error("request failed", "method", r.Method, "path", r.URL.Path, "status", he.Status, "err", err)
		if exposeCauses.Load() && he.Err != nil {
			env.Error = he.Err.Error()
		}
	}
	WriteJSON(w, he.Status, env)
}

// WriteJSON writes v as a JSON response with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HandlerFunc is an http handler that reports failures by returning them.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Handle adapts fn to http.HandlerFunc, routing returned errors through Write.
func Handle(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			Write(w, r, err)
		}
	}
}
