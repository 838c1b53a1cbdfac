// Package validation checks request parameters with go-playground/validator
// and reports failures as field-level errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/diabetes-care-api/internal/domain"
	"github.com/couchcryptid/diabetes-care-api/internal/render"
)

// ErrorCode is the machine-readable code of every validation failure.
const ErrorCode = "VALIDATION_ERROR"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one failed check on one request field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e FieldError) Error() string { return e.Message }

// RequestValidationError collects the field errors of one request.
type RequestValidationError struct {
	Fields []FieldError
}

// NewError builds a RequestValidationError for a single field, for checks
// made outside struct validation such as parsing.
func NewError(field, tag string, value any, message string) *RequestValidationError {
	return &RequestValidationError{Fields: []FieldError{{Field: field, Tag: tag, Value: value, Message: message}}}
}

func (ve *RequestValidationError) Error() string {
	if len(ve.Fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(ve.Fields))
	for i, f := range ve.Fields {
		messages[i] = f.Message
	}
	return strings.Join(messages, "; ")
}

// APIError is the response body of a rejected request.
type APIError struct {
	Code   string       `json:"code"`
	Detail string       `json:"detail"`
	Errors []FieldError `json:"errors,omitempty"`
}

// ToAPIError converts the error into its response body.
func (ve *RequestValidationError) ToAPIError() APIError {
	return APIError{Code: ErrorCode, Detail: ve.Error(), Errors: ve.Fields}
}

// GetValidator returns the shared validator with the domain checks
// registered. Field names in errors come from the `query` struct tag.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("query"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})

		mustRegister("indicator", func(fl validator.FieldLevel) bool {
			_, ok := domain.LookupIndicator(domain.IndicatorID(fl.Field().Int()))
			return ok
		})
		mustRegister("area_type", func(fl validator.FieldLevel) bool {
			return domain.AreaType(fl.Field().String()).Valid()
		})
		mustRegister("color_scheme", func(fl validator.FieldLevel) bool {
			return domain.ColorScheme(fl.Field().String()).Valid()
		})
		mustRegister("plot_color", func(fl validator.FieldLevel) bool {
			_, err := render.ParseColor(fl.Field().String())
			return err == nil
		})
		mustRegister("image_format", func(fl validator.FieldLevel) bool {
			return render.Format(fl.Field().String()).Valid()
		})
	})

	return validate
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validator: %v", tag, err))
	}
}

// ValidateStruct validates s, returning nil when every check passes.
func ValidateStruct(s any) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return NewError("unknown", "unknown", nil, err.Error())
	}

	fields := make([]FieldError, len(validationErrs))
	for i, fe := range validationErrs {
		fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fe.Value(),
			Message: translateError(fe),
		}
	}
	return &RequestValidationError{Fields: fields}
}

var errorMessageTemplates = map[string]string{
	"required":     "%s is required",
	"indicator":    "%s must be a known indicator ID",
	"area_type":    "%s must be one of: " + joinValues(domain.AreaTypes()),
	"color_scheme": "%s must be one of: " + joinValues(domain.ColorSchemes()),
	"plot_color":   "%s must be a color name or #rrggbb hex value",
	"image_format": "%s must be one of: " + joinValues(render.Formats()),
}

var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"min":   "%s must be at least %s",
	"max":   "%s must be at most %s",
}

func translateError(fe validator.FieldError) string {
	if template, ok := errorMessageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(template, fe.Field())
	}
	if template, ok := errorMessageWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(template, fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}

func joinValues[T ~string](values []T) string {
	s := make([]string, len(values))
	for i, v := range values {
		s[i] = string(v)
	}
	return strings.Join(s, ", ")
}
