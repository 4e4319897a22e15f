// Package errs defines the error taxonomy shared by the engine, the
// storage backends and the HTTP layer.
//
// Three families exist:
//   - ValidationError / ValidationErrors: the caller sent bad input.
//   - NotFoundError: the requested id does not exist.
//   - StoreUnavailableError: the backing store failed.
//
// Each family can be matched with errors.Is against the sentinels below,
// or unpacked with errors.As to read its fields.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Kind classifies a ValidationError.
type Kind string

const (
	// KindMalformedRange: age_range did not decompose into exactly two integers.
	KindMalformedRange Kind = "malformed_range"
	// KindInvertedRange: age_range had min_age > max_age.
	KindInvertedRange Kind = "inverted_range"
	// KindInvalidField: a student field broke its constraint.
	KindInvalidField Kind = "invalid_field"
)

// ValidationError describes one rejected input.
type ValidationError struct {
	Kind    Kind   `json:"kind"`
	Field   string `json:"field"`
	Message string `json:"error"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewMalformedRange builds the error for an age_range of the wrong arity
// or with non-integer parts.
func NewMalformedRange() *ValidationError {
	return &ValidationError{
		Kind:    KindMalformedRange,
		Field:   "age_range",
		Message: "age_range must contain exactly two integers [min_age, max_age]",
	}
}

// NewInvertedRange builds the error for an age_range with min > max.
func NewInvertedRange(minAge, maxAge int) *ValidationError {
	return &ValidationError{
		Kind:    KindInvertedRange,
		Field:   "age_range",
		Message: fmt.Sprintf("invalid age_range: min_age must be <= max_age (got %d > %d)", minAge, maxAge),
	}
}

// ValidationErrors groups several field failures found in one payload.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, ", ")
}

func (v ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError reports that no student carries the requested id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Student with ID %s not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFound returns a NotFoundError for id.
func NewNotFound(id string) *NotFoundError {
	return &NotFoundError{ID: id}
}

// StoreUnavailableError wraps a driver or transaction failure.
//
// Op names the store operation ("create", "list", ...), Subject the id or
// filter being processed. Err keeps the raw driver error for logs; it is
// never sent to clients.
type StoreUnavailableError struct {
	Op      string
	Subject string
	Err     error
}

func (e *StoreUnavailableError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Subject, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

func (e *StoreUnavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// NewStoreUnavailable wraps err. A nil err yields nil so call sites can
// write `return errs.NewStoreUnavailable("list", "", err)` unconditionally.
func NewStoreUnavailable(op, subject string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreUnavailableError{Op: op, Subject: subject, Err: err}
}
