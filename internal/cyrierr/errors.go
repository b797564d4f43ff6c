// Package cyrierr implements the error taxonomy from the orchestrator's
// error-handling design: every error raised across the component boundaries
// is tagged with a Kind so the orchestrator can decide whether to retry,
// abort, or roll back without string-matching error text.
package cyrierr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation-policy purposes.
type Kind string

const (
	Config      Kind = "CONFIG"
	Environment Kind = "ENVIRONMENT"
	Elevation   Kind = "ELEVATION"
	Hypervisor  Kind = "HYPERVISOR"
	Network     Kind = "NETWORK"
	SSH         Kind = "SSH"
	Task        Kind = "TASK"
	Resource    Kind = "RESOURCE"
)

// Structural kinds abort the create workflow and trigger rollback; all
// others are handled locally (retried or recorded without aborting).
func (k Kind) Structural() bool {
	switch k {
	case Config, Environment, Elevation, Hypervisor, Network:
		return true
	default:
		return false
	}
}

// Error wraps an underlying error with a Kind and optional field context
// (e.g. "guest_settings[2].vcpus" for a CONFIG error naming the offending
// field path).
type Error struct {
	Kind   Kind
	Field  string
	Err    error
	Advice []string
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Err: errors.New(msg)}
}

func Wrap(kind Kind, err error, msg string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: fmt.Errorf("%s: %w", msg, err)}
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Field, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// WithField attaches a field path to a CONFIG-style error.
func (e *Error) WithField(path string) *Error {
	e.Field = path
	return e
}

// WithAdvice attaches remediation lines (used by ELEVATION and ENVIRONMENT
// errors, which must surface structured guidance).
func (e *Error) WithAdvice(lines ...string) *Error {
	e.Advice = append(e.Advice, lines...)
	return e
}

// Is reports whether err is a *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the Kind of err if it is (or wraps) a *Error, else "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
