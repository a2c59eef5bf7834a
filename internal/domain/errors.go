package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrProfileNotFound    = errors.New("profile not found")
	ErrInvitationNotFound = errors.New("invitation not found")
	// ErrSessionIncomplete indicates the authenticated session lacks an
	// identity or email; submission must not be attempted.
	ErrSessionIncomplete = errors.New("session is missing identity or email")
	// ErrSelfInvitation indicates the partner email is the user's own.
	ErrSelfInvitation = errors.New("cannot invite your own email address")
	// ErrAtFinalStep indicates Next was called on the last step; advancing
	// further requires submission, which is a distinct operation.
	ErrAtFinalStep = errors.New("already at the final step")
)

// ConflictError is returned when an insert hits a uniqueness constraint.
// The persistence fallback chain keys its upsert decision on this type.
type ConflictError struct {
	Key string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("record for %q already exists", e.Key)
}

// StepTransitionError is returned when a wizard navigation is not allowed.
type StepTransitionError struct {
	Event   Event
	Current Step
}

func (e *StepTransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from step %q", e.Event, e.Current)
}

// ValidationFailedError carries the per-field messages that blocked an
// advance or a submission. Field errors themselves are data, not errors;
// this type exists so the blocking condition can cross an API boundary.
type ValidationFailedError struct {
	Step   Step
	Fields map[Field]string
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("step %q has %d invalid field(s)", e.Step, len(e.Fields))
}

// TimeoutError is returned when a time-boxed pipeline operation exceeds
// its budget. The wait is abandoned; the underlying call is not cancelled.
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation %q timed out", e.Op)
}
