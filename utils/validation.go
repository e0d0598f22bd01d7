package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Basic credentials split at the first colon, so a login may not contain one
	_ = v.RegisterValidation("login", func(fl validator.FieldLevel) bool {
		return IsValidLogin(fl.Field().String())
	})
	_ = v.RegisterValidation("printable", func(fl validator.FieldLevel) bool {
		return !strings.ContainsFunc(fl.Field().String(), func(r rune) bool {
			return r < 0x20 || r == 0x7f
		})
	})
	return v
}

// ValidateStruct checks the validate tags of a user or consumer request. Tag
// failures come back as a *ValidationError keyed by field name.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return NewValidationError(fieldErrs)
	}
	return err
}

// ValidationError lists the rejected fields of a request body
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError turns validator field errors into readable messages
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &ValidationError{Message: "Validation failed", Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	case "login":
		return name + " must not contain a colon or whitespace"
	case "printable":
		return name + " must contain printable characters only"
	}
	return fmt.Sprintf("%s validation failed on '%s' tag", name, fe.Tag())
}

// GetValidationFields returns the per-field messages of a *ValidationError
func GetValidationFields(err error) map[string]string {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Fields
	}
	return nil
}

// IsValidLogin reports whether s can be sent as a Basic username
func IsValidLogin(s string) bool {
	return s != "" && !strings.ContainsAny(s, ": \t\r\n")
}
