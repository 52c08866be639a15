// Package validation runs struct-tag validation and turns failures into
// apperr validation errors.
package validation

import (
	"errors"
	"fmt"

	"github.com/dalemusser/leadhub/internal/app/system/apperr"
	"github.com/go-playground/validator/v10"
)

// Global validator instance (reused across all repositories)
var validate = validator.New()

// Struct validates v and returns the first failing field as a validation
// error for op.
func Struct(op string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return apperr.Validationf(op, "%s: %s", ve[0].Field(), message(ve[0]))
	}
	return apperr.Validationf(op, "validation failed: %v", err)
}

// Var validates a single value against tag.
func Var(op, field string, v any, tag string) error {
	err := validate.Var(v, tag)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return apperr.Validationf(op, "%s: %s", field, message(ve[0]))
	}
	return apperr.Validationf(op, "%s: validation failed: %v", field, err)
}

// message converts a validator FieldError to a user-friendly message
func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must have a minimum of %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must have a maximum of %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
