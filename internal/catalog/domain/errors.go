package domain

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when no product matches the given id or slug
var ErrNotFound = errors.New("product not found")

// ErrSlugTaken is returned when persisting a product whose slug is already
// used by another product. Slug collisions are rejected, never suffixed.
var ErrSlugTaken = errors.New("a product with the same slug already exists")

// ValidationError aggregates field constraint violations into one
// human-readable message.
type ValidationError struct {
	Messages []string
}

// Add appends a constraint violation message
func (e *ValidationError) Add(msg string) {
	e.Messages = append(e.Messages, msg)
}

// HasErrors reports whether any violation was recorded
func (e *ValidationError) HasErrors() bool {
	return len(e.Messages) > 0
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, ", ")
}

// NewValidationError builds a ValidationError from the given messages
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
