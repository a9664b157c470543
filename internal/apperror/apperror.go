// Package apperror carries the forum's status taxonomy through Go errors.
//
// HOW IT FITS TOGETHER:
// Every expected failure is an *AppError wrapping one sentinel below. Code
// further up can wrap it again with fmt.Errorf("...: %w", err) and
// StatusOf(err) still finds the status, because errors.Is walks the chain.
// Handlers never look at messages, only at the status.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound                 = errors.New("not found")
	ErrAlreadyExists            = errors.New("already exists")
	ErrNoEffect                 = errors.New("no effect")
	ErrInvalidParameters        = errors.New("invalid parameters")
	ErrValueTooShort            = errors.New("value too short")
	ErrValueTooLong             = errors.New("value too long")
	ErrNotAllowed               = errors.New("not allowed")
	ErrQuotaExceeded            = errors.New("quota exceeded")
	ErrCircularReference        = errors.New("circular reference not allowed")
	ErrNotUpdatedSinceLastCheck = errors.New("not updated since last check")
)

type AppError struct {
	Err     error  // sentinel
	Message string // human-readable
	Field   string // optional: offending input field
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// ValidationFailed covers empty or malformed input.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrInvalidParameters,
		Message: message,
		Field:   field,
	}
}

func TooShort(field string, min int) *AppError {
	return &AppError{
		Err:     ErrValueTooShort,
		Message: fmt.Sprintf("%s must be at least %d characters", field, min),
		Field:   field,
	}
}

func TooLong(field string, max int) *AppError {
	return &AppError{
		Err:     ErrValueTooLong,
		Message: fmt.Sprintf("%s must be at most %d characters", field, max),
		Field:   field,
	}
}

// Conflict reports a unique name that is already taken.
func Conflict(resource, name string) *AppError {
	return &AppError{
		Err:     ErrAlreadyExists,
		Message: fmt.Sprintf("%s %q already exists", resource, name),
	}
}

func NoEffect(message string) *AppError {
	return &AppError{Err: ErrNoEffect, Message: message}
}

// Forbidden returns an AppError indicating the caller lacks a privilege.
func Forbidden(message string) *AppError {
	return &AppError{Err: ErrNotAllowed, Message: message}
}

func QuotaExceeded(used, requested, quota uint64) *AppError {
	return &AppError{
		Err:     ErrQuotaExceeded,
		Message: fmt.Sprintf("attachment quota exceeded: %d + %d > %d bytes", used, requested, quota),
	}
}

func Circular(message string) *AppError {
	return &AppError{Err: ErrCircularReference, Message: message}
}

func NotModified() *AppError {
	return &AppError{Err: ErrNotUpdatedSinceLastCheck, Message: "not updated since last check"}
}
