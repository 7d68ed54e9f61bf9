// Package forgeerr declares the error taxonomy shared across forge's
// subsystems (see SPEC_FULL.md §7). Contract-level errors propagate to the
// caller immediately; repairable errors are absorbed inside their subsystem.
package forgeerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error along the taxonomy boundary that decides whether
// it propagates to the caller or is absorbed by the owning subsystem.
type Kind string

const (
	InvalidInput        Kind = "invalid_input"
	InvariantViolation   Kind = "invariant_violation"
	IntegrityFailure     Kind = "integrity_failure"
	VerificationFailure  Kind = "verification_failure"
	DependencyUnsatisfied Kind = "dependency_unsatisfied"
	ProviderError        Kind = "provider_error"
	Timeout              Kind = "timeout"
	PolicyDenial         Kind = "policy_denial"
	NetworkTransient     Kind = "network_transient"
)

// Propagates reports whether errors of this kind must surface to the caller
// rather than being absorbed by the subsystem that produced them.
func (k Kind) Propagates() bool {
	switch k {
	case InvalidInput, InvariantViolation, IntegrityFailure:
		return true
	default:
		return false
	}
}

// Error wraps an underlying error with a taxonomy Kind and the operation
// that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a tagged error.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err's chain holds an *Error of the given Kind: it
// unwraps with errors.As and compares the Kind field.
func Is(err error, kind Kind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}
