package service

import (
	"errors"
	"fmt"
)

// Service errors.
var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password is too short")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionRevoked     = errors.New("session has been signed out")
	ErrUserNotFound       = errors.New("user not found")
	ErrBrewNotFound       = errors.New("brew not found")
	ErrBagNotFound        = errors.New("bag not found")
	ErrForbidden          = errors.New("not allowed to modify this document")
	ErrInvalidCursor      = errors.New("invalid pagination cursor")
	ErrInvalidRange       = errors.New("invalid date range")
	ErrUnsupportedImage   = errors.New("only JPEG and PNG images are accepted")
	ErrImageTooLarge      = errors.New("image exceeds maximum size")
	ErrInvalidImageKind   = errors.New("invalid image kind")
)

// ValidationError reports a single invalid input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalidField(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
