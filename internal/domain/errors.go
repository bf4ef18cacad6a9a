package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no payment method exists that the caller may
// access. It does not distinguish a missing record from one owned by another user.
var ErrNotFound = errors.New("payment method not found")

// ValidationError reports a structurally invalid field supplied by the client.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func IsValidationError(err error) bool {
	var validationError *ValidationError
	return errors.As(err, &validationError)
}

// StorageError wraps a failure of the persistence layer. The service does not
// interpret or retry it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func IsStorageError(err error) bool {
	var storageError *StorageError
	return errors.As(err, &storageError)
}
