package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "peaktrail/internal/errors"
	apiv1 "peaktrail/pkg/contracts/api/v1"
)

// RequestValidator validates API request structs using struct tags
type RequestValidator struct {
	validator *validator.Validate
	logger    *slog.Logger
}

// NewRequestValidator creates a validator with the peaktrail custom tags
// registered.
func NewRequestValidator(logger *slog.Logger) *RequestValidator {
	if logger == nil {
		logger = slog.Default()
	}

	v := validator.New()
	_ = v.RegisterValidation("peakid", isPeakID)

	// Use query tag names in error messages, falling back to JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	return &RequestValidator{
		validator: v,
		logger:    logger.With(slog.String("component", "request_validator")),
	}
}

// ValidateStruct validates a struct and returns validation errors
func (v *RequestValidator) ValidateStruct(s interface{}) error {
	err := v.validator.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apierrors.InvalidRequestWithError(err)
	}

	fields := make([]apierrors.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(fields)
}

// ParseTimelineRequest reads the timeline overrides from the query string
// and validates them. Peak IDs are upper-cased; peaks may be repeated or
// comma separated.
func (v *RequestValidator) ParseTimelineRequest(r *http.Request) (apiv1.TimelineRequest, error) {
	q := r.URL.Query()
	req := apiv1.TimelineRequest{
		Granularity: strings.ToLower(strings.TrimSpace(q.Get("granularity"))),
		Rollup:      strings.ToLower(strings.TrimSpace(q.Get("rollup"))),
	}

	var fields []apierrors.ValidationError

	if s := strings.TrimSpace(q.Get("top")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			fields = append(fields, apierrors.ValidationError{Field: "top", Message: "top must be a valid integer"})
		} else {
			req.Top = n
		}
	}

	if s := strings.TrimSpace(q.Get("combined")); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			fields = append(fields, apierrors.ValidationError{Field: "combined", Message: "combined must be true or false"})
		} else {
			req.Combined = b
		}
	}

	for _, raw := range q["peaks"] {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.ToUpper(strings.TrimSpace(id)); id != "" {
				req.Peaks = append(req.Peaks, id)
			}
		}
	}

	if len(fields) > 0 {
		v.logger.DebugContext(r.Context(), "rejected timeline query", slog.String("query", r.URL.RawQuery))
		return req, apierrors.NewValidationErrors(fields)
	}

	if err := v.ValidateStruct(req); err != nil {
		v.logger.DebugContext(r.Context(), "rejected timeline query", slog.String("query", r.URL.RawQuery))
		return req, err
	}

	return req, nil
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "peakid":
		return fmt.Sprintf("%s must be a peak id of letters and digits", field)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// isPeakID accepts Himalayan Database peak ids: 1-10 upper-case letters or
// digits.
func isPeakID(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	if len(id) < 1 || len(id) > 10 {
		return false
	}
	for _, ch := range id {
		if !((ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')) {
			return false
		}
	}
	return true
}
