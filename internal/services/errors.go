package services

import (
	"errors"
	"fmt"

	"github.com/munificent-school/backoffice/internal/repositories"
	"github.com/munificent-school/backoffice/internal/validator"
)

var (
	ErrNotFound         = errors.New("resource not found")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthorized     = errors.New("authentication required")
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrInvalidLogin     = errors.New("no active account found with the given credentials")
)

// ValidationErrors carries field-level details for a 400 response.
type ValidationErrors = validator.ValidationErrors

// PermissionError explains a forbidden operation.
type PermissionError struct {
	Resource string
	Action   string
	Reason   string
}

func NewPermissionError(resource, action, reason string) *PermissionError {
	return &PermissionError{Resource: resource, Action: action, Reason: reason}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("cannot %s %s: %s", e.Action, e.Resource, e.Reason)
}

func (e *PermissionError) Unwrap() error {
	return ErrForbidden
}

// invalid wraps field errors so both errors.As(ValidationErrors) and
// errors.Is(ErrValidationFailed) hold.
func invalid(errs ValidationErrors) error {
	return fmt.Errorf("%w: %w", ErrValidationFailed, errs)
}

// validationFailed wraps the result of Validator.Validate or ValidatePassword.
func validationFailed(err error) error {
	var errs ValidationErrors
	if errors.As(err, &errs) {
		return invalid(errs)
	}
	return fmt.Errorf("%w: %v", ErrValidationFailed, err)
}

func invalidField(field, message, rule string) error {
	return invalid(validator.Field(field, message, rule))
}

// notFoundOr maps a repository miss onto ErrNotFound and wraps anything else.
func notFoundOr(err error, what string) error {
	if repositories.IsNotFoundError(err) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}
