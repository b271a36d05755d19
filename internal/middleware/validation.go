package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/chadallison/running-st/internal/errors"
)

// Validator validates request parameter structs using struct tags
type Validator struct {
	validator    *validator.Validate
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewValidator creates a validator. tableNames feeds the "table_name" tag.
func NewValidator(logger *slog.Logger, errorHandler *apperrors.ErrorHandler, tableNames []string) *Validator {
	v := validator.New()

	known := make(map[string]struct{}, len(tableNames))
	for _, name := range tableNames {
		known[name] = struct{}{}
	}
	_ = v.RegisterValidation("table_name", func(fl validator.FieldLevel) bool {
		_, ok := known[fl.Field().String()]
		return ok
	})
	_ = v.RegisterValidation("isodate", isISODate)

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{
		validator:    v,
		logger:       logger.With(slog.String("component", "validation")),
		errorHandler: errorHandler,
	}
}

// ValidateStruct validates a struct and returns a 400 APIError listing every
// failed field.
func (m *Validator) ValidateStruct(v interface{}) error {
	err := m.validator.Struct(v)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	details := make([]apperrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, apperrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apperrors.NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", details)
}

// Bind validates v and writes the problem response on failure. It reports
// whether the handler may continue.
func (m *Validator) Bind(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := m.ValidateStruct(v); err != nil {
		m.logger.DebugContext(r.Context(), "request parameters rejected",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		m.errorHandler.HandleError(w, r, err)
		return false
	}
	return true
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "table_name":
		return fmt.Sprintf("%s is not a known report table", field)
	case "isodate":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD form", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// isISODate validates YYYY-MM-DD dates. Empty values pass.
func isISODate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
