// Package httpx writes the console's JSON responses.
package httpx

import (
	"context"
	"encoding/json"
	"maps"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/hanko-field/catalog-console/internal/platform/requestctx"
)

const (
	codeLimit    = 80
	messageLimit = 512
	idLimit      = 80
)

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Error is an API failure rendered as {"error", "message", "status", ...}. Details are merged into
// the top level of the body.
type Error struct {
	Code    string
	Message string
	Status  int
	// Fields maps form field names to validation codes.
	Fields  map[string]string
	Details map[string]any
}

func (e Error) Error() string {
	return e.Code + ": " + e.Message
}

// NewError builds an Error. A zero status means 500.
func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{
		Code:    singleLine(code, codeLimit),
		Message: singleLine(message, messageLimit),
		Status:  status,
	}
}

func (e Error) WithFields(fields map[string]string) Error {
	if len(fields) > 0 {
		e.Fields = maps.Clone(fields)
	}
	return e
}

func (e Error) WithDetails(details map[string]any) Error {
	if len(details) > 0 {
		e.Details = maps.Clone(details)
	}
	return e
}

func (e Error) body(ctx context.Context) map[string]any {
	body := make(map[string]any, 6+len(e.Details))
	maps.Copy(body, e.Details)
	body["error"] = e.Code
	body["message"] = e.Message
	body["status"] = e.Status
	if id := singleLine(middleware.GetReqID(ctx), idLimit); id != "" {
		body["request_id"] = id
	}
	if id := singleLine(requestctx.TraceID(ctx), idLimit); id != "" {
		body["trace_id"] = id
	}
	if len(e.Fields) > 0 {
		body["fields"] = e.Fields
	}
	return body
}

// WriteError renders err with the request and trace IDs found on ctx.
func WriteError(ctx context.Context, w http.ResponseWriter, err Error) {
	if err.Status == 0 {
		err.Status = http.StatusInternalServerError
	}
	WriteJSON(w, err.Status, err.body(ctx))
}

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func singleLine(value string, limit int) string {
	value = strings.TrimSpace(lineBreaks.Replace(value))
	if len(value) > limit {
		value = value[:limit]
	}
	return value
}
