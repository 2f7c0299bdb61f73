package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the bin does not exist or has already expired.
	ErrNotFound = errors.New("bin not found")
	// ErrPermissionDenied means the actor is neither the author nor an admin.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrPoolExhausted means no pre-generated hash was available at creation time.
	ErrPoolExhausted = errors.New("hash pool exhausted")
	// ErrDuplicateTitle means the namespaced title is already taken.
	ErrDuplicateTitle = errors.New("title already exists")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
