// Package errors provides shared error types for the toolkit catalog and its stores.
package errors

import (
	"errors"
	"fmt"
)

// NotFoundError indicates an entity was not found in the catalog.
type NotFoundError struct {
	EntityType string // "tool", "category"
	Identifier string // tool id or category name
}

func (e *NotFoundError) Error() string {
	if e.EntityType != "" {
		return fmt.Sprintf("%s not found in catalog: %s", e.EntityType, e.Identifier)
	}
	return fmt.Sprintf("not found in catalog: %s", e.Identifier)
}

// NewNotFoundError creates a NotFoundError for a tool lookup.
func NewNotFoundError(identifier string) *NotFoundError {
	return &NotFoundError{
		EntityType: "tool",
		Identifier: identifier,
	}
}

// ValidationError indicates invalid input parameters or catalog data.
type ValidationError struct {
	Field   string // field name that failed validation
	Value   string // the invalid value (may be empty)
	Message string // human-readable error message
}

func (e *ValidationError) Error() string {
	if e.Field != "" && e.Value != "" {
		return fmt.Sprintf("validation failed for %s=%q: %s", e.Field, e.Value, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, value, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
