package services

import (
	"errors"
	"fmt"
)

// ErrorType classifies a DomainError for the HTTP layer
type ErrorType string

const (
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeValidation       ErrorType = "validation"
	ErrorTypeIdentityNotFound ErrorType = "identity_not_found"
	ErrorTypeConflict         ErrorType = "conflict"
	ErrorTypeInternal         ErrorType = "internal"
)

// DomainError is the error returned by the user, consumer and role check
// services. Message is safe to show to callers; Err is not.
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError of the same type, so errors.Is(err,
// ErrUserNotFound) holds for every not-found error.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && e.Type == t.Type
}

// WithDetail sets a detail returned alongside the message
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a DomainError with an empty details map
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

var (
	ErrUserNotFound      = NewDomainError(ErrorTypeNotFound, "user not found", nil)
	ErrConsumerNotFound  = NewDomainError(ErrorTypeNotFound, "consumer not found", nil)
	ErrDuplicateLogin    = NewDomainError(ErrorTypeConflict, "login already exists", nil)
	ErrDuplicateConsumer = NewDomainError(ErrorTypeConflict, "consumer already registered", nil)
)

// NewIdentityNotFoundError reports a Basic login with no matching user. The
// message is returned to the caller verbatim.
func NewIdentityNotFoundError(login string) *DomainError {
	return NewDomainError(
		ErrorTypeIdentityNotFound,
		fmt.Sprintf("User with login [%s] does not exist", login),
		nil,
	).WithDetail("login", login)
}

// NewValidationError reports a rejected request body. fields maps each
// offending field to its problem and becomes the error details.
func NewValidationError(message string, err error, fields map[string]string) *DomainError {
	domainErr := NewDomainError(ErrorTypeValidation, message, err)
	for field, problem := range fields {
		domainErr.Details[field] = problem
	}
	return domainErr
}

// WrapInternal hides err behind a generic internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// GetErrorType returns the type of the first DomainError in err's chain, or
// "" when there is none.
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details of the first DomainError in err's chain
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

func IsNotFoundError(err error) bool { return GetErrorType(err) == ErrorTypeNotFound }

func IsValidationError(err error) bool { return GetErrorType(err) == ErrorTypeValidation }

func IsIdentityNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeIdentityNotFound
}

func IsConflictError(err error) bool { return GetErrorType(err) == ErrorTypeConflict }

func IsInternalError(err error) bool { return GetErrorType(err) == ErrorTypeInternal }
