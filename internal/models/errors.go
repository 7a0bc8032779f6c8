package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Business-rule errors. Handlers map these to 4xx responses; anything
// else coming out of a service is wrapped in SystemError and maps to 500.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrNotOwner        = errors.New("resource is claimed by another moderator")
	ErrForbidden       = errors.New("actor is not allowed to perform this action")
	ErrNotEligible     = errors.New("incidence is not eligible for appeal")
	ErrDuplicateAppeal = errors.New("incidence has already been appealed")
	ErrEmailTaken      = errors.New("email already in use")
	ErrInvalidArgument = errors.New("invalid argument")
)

// AlreadyHeldError is returned when a claim loses the race: another
// moderator already holds the incidence. Recoverable by re-polling.
type AlreadyHeldError struct {
	HolderID uuid.UUID
}

func (e AlreadyHeldError) Error() string {
	return fmt.Sprintf("incidence already claimed by moderator %s", e.HolderID)
}

// NotClaimableError is returned when the incidence is in a state that
// does not admit claiming at all.
type NotClaimableError struct {
	Status IncidenceStatus
}

func (e NotClaimableError) Error() string {
	return fmt.Sprintf("incidence in status %s cannot be claimed", e.Status)
}

// InvalidStateError is returned when an operation is attempted outside
// its legal state. Never corrected silently.
type InvalidStateError struct {
	Op     string
	Status string
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("%s is not allowed in status %s", e.Op, e.Status)
}

// SystemError wraps storage or other infrastructure failures so callers
// can tell "you can't do this" apart from "the system is broken".
type SystemError struct {
	Err error
}

func (e SystemError) Error() string { return "system error: " + e.Err.Error() }
func (e SystemError) Unwrap() error { return e.Err }

// Systemf wraps err as a SystemError with context.
func Systemf(format string, args ...interface{}) error {
	return SystemError{Err: fmt.Errorf(format, args...)}
}

// IsBusinessError reports whether err belongs to the business-rule
// taxonomy rather than the infrastructure one.
func IsBusinessError(err error) bool {
	var ah AlreadyHeldError
	var nc NotClaimableError
	var is InvalidStateError
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrNotOwner) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrNotEligible) ||
		errors.Is(err, ErrDuplicateAppeal) ||
		errors.Is(err, ErrEmailTaken) ||
		errors.Is(err, ErrInvalidArgument) ||
		errors.As(err, &ah) ||
		errors.As(err, &nc) ||
		errors.As(err, &is)
}
