package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateAccount   = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyVerified    = errors.New("email is already verified")
	ErrNoOTPIssued        = errors.New("no verification code has been issued, request a new one")
	ErrOTPExpired         = errors.New("verification code has expired, request a new one")
	ErrOTPMismatch        = errors.New("verification code is incorrect")
	ErrForbidden          = errors.New("you are not allowed to perform this action")
	ErrUnauthorized       = errors.New("authentication required")
	ErrMissingFields      = errors.New("required fields are missing")
	ErrInternal           = errors.New("internal server error")

	ErrUserNotFound   = fmt.Errorf("user %w", ErrNotFound)
	ErrReportNotFound = fmt.Errorf("report %w", ErrNotFound)
)

// MissingFieldsError names the required fields that were absent. It matches
// ErrMissingFields with errors.Is.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return ErrMissingFields.Error() + ": " + strings.Join(e.Fields, ", ")
}

func (e *MissingFieldsError) Is(target error) bool {
	return target == ErrMissingFields
}
