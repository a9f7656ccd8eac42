// Package apperr defines the error taxonomy shared by the services.
//
// Handlers translate these sentinels into HTTP status codes: ErrNotFound to
// 404, ErrAccessDenied to 403, ErrInvalidArgument to 400 and ErrConflict to
// 409. Services wrap the sentinels with context via fmt.Errorf and %w so
// errors.Is keeps working across layers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both truly absent entities and entities the caller
	// is not allowed to know exist (visibility-filtered absence).
	ErrNotFound = errors.New("not found")

	// ErrAccessDenied means the entity exists and its status allows it to be
	// seen, but the caller's level or role is insufficient.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidArgument rejects malformed input before any query or
	// mutation executes.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConflict signals a duplicate unique key; wrap it with Conflictf so
	// the conflicting field is named.
	ErrConflict = errors.New("conflict")
)

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// Conflictf wraps ErrConflict naming the conflicting field.
func Conflictf(field string) error {
	return fmt.Errorf("%s already exists: %w", field, ErrConflict)
}

// InvalidArgumentf wraps ErrInvalidArgument with a formatted message.
func InvalidArgumentf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidArgument)...)
}

func IsNotFound(err error) bool        { return errors.Is(err, ErrNotFound) }
func IsAccessDenied(err error) bool    { return errors.Is(err, ErrAccessDenied) }
func IsInvalidArgument(err error) bool { return errors.Is(err, ErrInvalidArgument) }
func IsConflict(err error) bool        { return errors.Is(err, ErrConflict) }
