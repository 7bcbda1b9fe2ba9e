package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err, statusFor(err))
//  3. Error is mapped via core.MapError to get user-friendly message
//  4. Technical error + context is logged with request ID for correlation
//  5. User message is rendered as JSON for API routes, HTML otherwise
//
// Domain errors already name the offending row, column or value, so their
// own text is returned as Error; unknown errors only expose the mapped
// message.

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/csvexplorer/internal/core"
	"github.com/JonMunkholm/csvexplorer/internal/dataset"
	"github.com/JonMunkholm/csvexplorer/internal/logging"
	"github.com/JonMunkholm/csvexplorer/internal/render"
	"github.com/JonMunkholm/csvexplorer/internal/schema"
	"github.com/JonMunkholm/csvexplorer/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, dataset.ErrParse),
		errors.Is(err, core.ErrBadRequest),
		errors.Is(err, core.ErrNoFile),
		errors.Is(err, core.ErrNotCSV):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, dataset.ErrIndexOutOfRange),
		errors.Is(err, core.ErrFileNotFound),
		errors.Is(err, core.ErrChartNotFound),
		errors.Is(err, render.ErrNotRenderable),
		errors.Is(err, render.ErrEmptySeries):
		return http.StatusNotFound
	case errors.Is(err, dataset.ErrUnknownColumn),
		errors.Is(err, dataset.ErrCoercion):
		return http.StatusUnprocessableEntity
	case errors.Is(err, schema.ErrMissingColumns),
		errors.Is(err, core.ErrNoTable),
		errors.Is(err, dataset.ErrStaleEditBuffer),
		errors.Is(err, dataset.ErrEditBufferClosed):
		return http.StatusConflict
	case errors.Is(err, core.ErrTooManyParses),
		errors.Is(err, core.ErrTooManySessions):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	// Includes export.ErrSerialization.
	return http.StatusInternalServerError
}

// errorText is the message shown for err.
func errorText(err error, msg core.UserMessage) string {
	if core.IsUserFacing(err) {
		return err.Error()
	}
	return msg.Message
}

// respondError logs the technical error server-side and returns a
// user-friendly response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	log := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= 500 {
		log.Error("request error", attrs...)
	} else {
		log.Warn("request error", attrs...)
	}

	if wantsJSON(r) {
		writeJSONStatus(w, statusCode, ErrorResponse{
			Error:   errorText(err, userMsg),
			Message: userMsg.Message,
			Action:  userMsg.Action,
			Code:    userMsg.Code,
		})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = templates.ErrorAlert(errorText(err, userMsg), userMsg.Action, userMsg.Code).Render(r.Context(), w)
}

// alertFor builds the page alert for err.
func alertFor(err error) *templates.Alert {
	msg := core.MapError(err)
	return &templates.Alert{Message: errorText(err, msg), Action: msg.Action, Code: msg.Code}
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}
