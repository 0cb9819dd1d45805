// Package validation checks request bodies with go-playground/validator and reports failures
// as apperror Validation errors keyed by JSON field name.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/municipal-dp/digital-profile/internal/apperror"
)

var validate = newValidator() //nolint:gochecknoglobals

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		if name == "" {
			return f.Name
		}

		return name
	})

	return v
}

// FieldError describes one failed field.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

// Message is the human readable text of the failure.
func (e FieldError) Message() string {
	switch e.Tag {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + e.Param + " long"
	case "max":
		return "must be at most " + e.Param + " long"
	case "eqfield":
		return "must match " + lowerFirst(e.Param)
	case "numeric":
		return "must contain digits only"
	case "len":
		return "must be exactly " + e.Param + " long"
	default:
		return "failed on " + e.Tag
	}
}

// Errors validates data and returns the failed fields.
func Errors(data any) ([]FieldError, error) {
	err := validate.Struct(data)
	if err == nil {
		return nil, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err //nolint:wrapcheck
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()})
	}

	return out, nil
}

// Struct validates data. Failures are returned as an apperror Validation error whose fields
// detail maps each JSON field name to a message.
func Struct(data any) error {
	fieldErrors, err := Errors(data)
	if err != nil {
		return apperror.Wrap(apperror.KindValidation, err, "request validation failed")
	}

	if len(fieldErrors) == 0 {
		return nil
	}

	fields := make(map[string]string, len(fieldErrors))
	for _, fe := range fieldErrors {
		fields[fe.Field] = fe.Message()
	}

	return apperror.Validation(fields)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}

	return strings.ToLower(s[:1]) + s[1:]
}
