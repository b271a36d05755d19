package errors

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Common error types following RFC 7807
const (
	TypeValidation   = "/errors/validation"
	TypeNotFound     = "/errors/not-found"
	TypeRateLimit    = "/errors/rate-limit"
	TypeInternal     = "/errors/internal"
	TypeServiceDown  = "/errors/service-unavailable"
	TypeTimeout      = "/errors/timeout"
	TypeDataSource   = "/errors/data/source-unavailable"
	TypeDataCorrupt  = "/errors/data/corrupted"
	TypeDataNotFound = "/errors/data/not-found"
)

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError converts any error to RFC 7807 format and responds
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())

	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	problem := ErrorToProblem(err, r.URL.Path)
	if reqID != "" {
		problem.WithExtension("trace_id", reqID)
	}
	if h.includeStack {
		problem.WithExtension("stack", getStackTrace())
	}

	render.Render(w, r, problem)
}

// StatusFor maps an error to the HTTP status the report surfaces use.
func StatusFor(err error) int {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return http.StatusGatewayTimeout
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	switch TypeOf(err) {
	case ErrTypeDataSource, ErrTypeParsing:
		return http.StatusBadGateway
	case ErrTypeEmptyDataset, ErrTypeNotFound:
		return http.StatusNotFound
	case ErrTypeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrorToProblem converts an error to RFC 7807 Problem Details
func ErrorToProblem(err error, instance string) *ProblemDetails {
	status := StatusFor(err)

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		problem := NewProblemDetails(status, problemTypeForCode(apiErr.ErrorCode),
			http.StatusText(status), apiErr.Message, instance).
			WithExtension("error_code", apiErr.ErrorCode)
		if apiErr.Details != nil {
			problem.WithExtension("details", apiErr.Details)
		}
		return problem
	}

	if status == http.StatusGatewayTimeout {
		return NewProblemDetails(status, TypeTimeout, "Request Timeout",
			"The request took too long to process and was cancelled", instance)
	}

	switch TypeOf(err) {
	case ErrTypeDataSource:
		return NewProblemDetails(status, TypeDataSource, "Data Source Unavailable", err.Error(), instance)
	case ErrTypeParsing:
		return NewProblemDetails(status, TypeDataCorrupt, "Malformed Running Log", err.Error(), instance)
	case ErrTypeEmptyDataset:
		return NewProblemDetails(status, TypeDataNotFound, "No Runs", err.Error(), instance)
	case ErrTypeNotFound:
		return NewProblemDetails(status, TypeNotFound, "Resource Not Found", err.Error(), instance)
	case ErrTypeValidation:
		return NewProblemDetails(status, TypeValidation, "Validation Failed", err.Error(), instance)
	}

	return NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error",
		"An unexpected error occurred while processing your request", instance)
}

func problemTypeForCode(code string) string {
	switch code {
	case "VALIDATION_FAILED":
		return TypeValidation
	case "NOT_FOUND":
		return TypeNotFound
	case "RATE_LIMIT_EXCEEDED":
		return TypeRateLimit
	case "SERVICE_UNAVAILABLE":
		return TypeServiceDown
	}
	return TypeInternal
}

// NotFound returns a standard 404 error
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeNotFound,
		"Not Found",
		"The requested resource was not found",
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	render.Render(w, r, problem)
}

// MethodNotAllowed returns a standard 405 error
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusMethodNotAllowed,
		TypeInternal,
		"Method Not Allowed",
		"Method "+r.Method+" is not allowed for this endpoint",
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	render.Render(w, r, problem)
}

// getStackTrace returns the current stack trace
func getStackTrace() string {
	buf := make([]byte, 1024*8)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
