// Package asrerr implements the error-kind taxonomy of spec.md §7:
// NotFound, ValidationFailure, StorageFailure, PolicyFailure, and
// Fatal. Components wrap the underlying cause with fmt.Errorf("%w")
// the way the teacher's internal/db package does, tagged with one of
// these sentinels so the orchestrator can classify failures with
// errors.Is without parsing strings.
package asrerr

import (
	"errors"
	"fmt"
)

// Kind sentinels. Use errors.Is(err, asrerr.NotFound) etc. to classify.
var (
	NotFound          = errors.New("not found")
	ValidationFailure = errors.New("validation failure")
	StorageFailure    = errors.New("storage failure")
	PolicyFailure     = errors.New("policy failure")
	Fatal             = errors.New("fatal")
)

// Error wraps a kind sentinel with entity context (spec.md §7's
// requirement that validation failures are "reported per SKU").
type Error struct {
	Kind   error
	Entity string // e.g. "sku:12345", "vendor:V-1"
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s [%s]: %v", e.Kind, e.Entity, e.Cause)
	}
	return fmt.Sprintf("%s [%s]", e.Kind, e.Entity)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Wrap constructs an *Error with the given kind, entity identity, and
// underlying cause.
func Wrap(kind error, entity string, cause error) *Error {
	return &Error{Kind: kind, Entity: entity, Cause: cause}
}

// WrapNotFound is a convenience constructor for the common
// "referenced X is missing" case (spec.md §7).
func WrapNotFound(entity string, cause error) *Error {
	return Wrap(NotFound, entity, cause)
}

// WrapValidation is a convenience constructor for out-of-range inputs.
func WrapValidation(entity string, cause error) *Error {
	return Wrap(ValidationFailure, entity, cause)
}

// WrapStorage is a convenience constructor for transient upstream errors.
func WrapStorage(entity string, cause error) *Error {
	return Wrap(StorageFailure, entity, cause)
}

// WrapPolicy is a convenience constructor for un-executable instructions.
func WrapPolicy(entity string, cause error) *Error {
	return Wrap(PolicyFailure, entity, cause)
}

// IsRetryable reports whether the orchestrator should treat this error
// as transient (only StorageFailure per spec.md §7 propagation rules).
func IsRetryable(err error) bool {
	return errors.Is(err, StorageFailure)
}
