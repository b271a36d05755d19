package middleware

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/chadallison/running-st/internal/errors"
	"github.com/chadallison/running-st/internal/infrastructure"
)

// writeProblem writes an RFC 7807 response from inside a middleware, where
// render's content negotiation is not wanted.
func writeProblem(w http.ResponseWriter, r *http.Request, status int, problemType, title, detail string) {
	problem := apperrors.NewProblemDetails(status, problemType, title, detail, r.URL.Path)
	if traceID := GetRequestID(r.Context()); traceID != "" {
		problem.WithExtension("trace_id", traceID)
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem)
}

// traceIDFor prefers the OpenTelemetry trace ID and falls back to the request ID.
func traceIDFor(r *http.Request) string {
	if traceID := infrastructure.GetTraceID(r.Context()); traceID != "" {
		return traceID
	}
	return GetRequestID(r.Context())
}
