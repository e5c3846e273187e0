package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrNotification      = errors.New("failed to send verification email")
	ErrMalformedSequence = errors.New("malformed stored unique id")
	ErrInvalidToken      = errors.New("invalid or expired verification link")
	ErrNotFound          = errors.New("participant not found")
)

// ValidationError lists the request fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("all fields required: missing %s", strings.Join(names, ", "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// MalformedSequenceError reports a stored unique id that does not parse.
// It means the participants table was written outside this service.
type MalformedSequenceError struct {
	Value string
}

func (e *MalformedSequenceError) Error() string {
	return fmt.Sprintf("malformed stored unique id %q", e.Value)
}

func (e *MalformedSequenceError) Is(target error) bool { return target == ErrMalformedSequence }

// NotificationError wraps the mail transport failure that aborted a registration.
type NotificationError struct {
	Email string
	Err   error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("failed to send verification email to %s: %v", e.Email, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

func (e *NotificationError) Is(target error) bool { return target == ErrNotification }
