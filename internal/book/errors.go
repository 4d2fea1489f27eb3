package book

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a book is not found.
	ErrNotFound = errors.New("book not found")

	// ErrInvalidID is returned when an id is not a well-formed store identifier.
	ErrInvalidID = errors.New("invalid book ID format")

	// ErrDuplicateISBN is returned when another book already uses the ISBN.
	ErrDuplicateISBN = errors.New("book with this ISBN already exists")

	// ErrNoFields is returned for an update without any field.
	ErrNoFields = errors.New("no fields to update")

	// ErrNoChanges is returned when an update leaves the stored book unchanged.
	ErrNoChanges = errors.New("no changes made to the book")

	// ErrMissingFilter is returned by Filter when neither genre nor year is given.
	ErrMissingFilter = errors.New("at least one filter parameter is required")

	// ErrUnavailable is returned when the store cannot be reached.
	ErrUnavailable = errors.New("database unavailable")
)

// ValidationError describes a malformed field value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ParamError describes a malformed query or path parameter.
type ParamError struct {
	Param  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Param, e.Reason)
}
