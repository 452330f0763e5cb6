// internal/app/features/errors/errors.go
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	groupsvc "github.com/YinkTech/peerreview/internal/app/services/groups"
	reviewsvc "github.com/YinkTech/peerreview/internal/app/services/reviews"
	"github.com/YinkTech/peerreview/internal/app/system/identity"
	"github.com/YinkTech/peerreview/internal/app/system/inputval"
	"go.uber.org/zap"
)

const (
	msgUnavailable = "Service temporarily unavailable. Please try again."
	msgInternal    = "Something went wrong. Please try again."
	msgPartial     = "The operation stopped partway. Some changes were applied and were not undone."
)

// Body is the JSON error envelope.
type Body struct {
	Error  string                `json:"error"`
	Fields []inputval.FieldError `json:"fields,omitempty"`
	Detail map[string]any        `json:"detail,omitempty"`
}

// ErrorLogger maps domain errors to HTTP responses and logs the server-side
// ones.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// WriteJSON writes v with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes {"error": msg} with status.
func Error(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, Body{Error: msg})
}

// Status returns the HTTP status for err and the message safe to show.
func Status(err error) (int, string) {
	var ve *inputval.Error
	var ce *groupsvc.CascadeError
	conflict := eligibility(err)
	switch {
	case stderrors.As(err, &ve):
		return http.StatusBadRequest, ve.Error()

	case conflict != nil:
		return http.StatusConflict, conflict.Error()

	case stderrors.Is(err, identity.ErrEmailInUse):
		return http.StatusConflict, "An account with this email already exists."
	case stderrors.Is(err, identity.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password."
	case stderrors.Is(err, identity.ErrInvalidToken):
		return http.StatusUnauthorized, "Please sign in."

	case stderrors.Is(err, reviewsvc.ErrReviewNotFound):
		return http.StatusNotFound, "Review not found."
	case stderrors.Is(err, groupsvc.ErrGroupNotFound):
		return http.StatusNotFound, "Group not found."
	case stderrors.Is(err, groupsvc.ErrStudentNotFound):
		return http.StatusNotFound, "Student not found."

	case stderrors.As(err, &ce):
		return http.StatusInternalServerError, msgPartial

	case stderrors.Is(err, reviewsvc.ErrStoreUnavailable),
		stderrors.Is(err, groupsvc.ErrStoreUnavailable),
		stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, msgUnavailable
	}
	return http.StatusInternalServerError, msgInternal
}

// eligibility returns the review rejection sentinel err wraps, or nil.
// The sentinel's own text is shown so wrap prefixes never reach clients.
func eligibility(err error) error {
	for _, target := range []error{
		reviewsvc.ErrDuplicateToday,
		reviewsvc.ErrNoGroup,
		reviewsvc.ErrGroupMismatch,
		reviewsvc.ErrNotTeammate,
		reviewsvc.ErrSelfReview,
	} {
		if stderrors.Is(err, target) {
			return target
		}
	}
	return nil
}

// Respond writes the response for err. Server-side failures are logged with
// the request path; client errors are not.
func (e *ErrorLogger) Respond(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := Status(err)
	body := Body{Error: msg}

	var ve *inputval.Error
	if stderrors.As(err, &ve) && len(ve.Fields) > 1 {
		body.Fields = ve.Fields
	}
	var ce *groupsvc.CascadeError
	if stderrors.As(err, &ce) {
		body.Detail = CascadeDetail(ce)
	}

	if status >= 500 {
		e.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}
	WriteJSON(w, status, body)
}

// CascadeDetail describes a partial cascade for API clients.
func CascadeDetail(ce *groupsvc.CascadeError) map[string]any {
	return map[string]any{
		"operation": ce.Op,
		"stage":     ce.Stage,
		"target":    ce.Target.Hex(),
		"applied":   ce.Applied,
		"total":     ce.Total,
	}
}

// NotFound is the router's fallback for unknown paths.
func NotFound(w http.ResponseWriter, r *http.Request) {
	Error(w, http.StatusNotFound, "Not found.")
}

// MethodNotAllowed is the router's fallback for unsupported methods.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	Error(w, http.StatusMethodNotAllowed, "Method not allowed.")
}
