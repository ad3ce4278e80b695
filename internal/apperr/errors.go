// Package apperr defines the error taxonomy shared by every tool.
//
// Each typed error matches one sentinel through errors.Is, so callers can
// branch on the category without caring about the concrete type:
//
//	if errors.Is(err, apperr.ErrNotFound) { ... }
//
// UserMessage turns any error into the text shown to the agent. It always
// names what failed, the offending value when one exists, and one corrective
// suggestion.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Category sentinels.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrAuth       = errors.New("authentication failed")
	ErrUpstream   = errors.New("task store request failed")
	ErrPartial    = errors.New("partial failure")
)

// Kind labels used in metrics and audit logs.
const (
	KindValidation = "validation"
	KindNotFound   = "not_found"
	KindAuth       = "auth"
	KindUpstream   = "upstream"
	KindPartial    = "partial"
	KindInternal   = "internal"
)

// ValidationError reports malformed or out-of-range input. It is raised
// before anything is sent to the task store.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
	Hint   string
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid ")
	if e.Field != "" {
		sb.WriteString(e.Field)
	} else {
		sb.WriteString("input")
	}
	if e.Value != "" {
		fmt.Fprintf(&sb, " %q", e.Value)
	}
	if e.Reason != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Reason)
	}
	return sb.String()
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Validation is a shorthand constructor.
func Validation(field, value, reason, hint string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason, Hint: hint}
}

// NotFoundError reports an identifier the store does not know.
type NotFoundError struct {
	Resource string // "task" or "task list"
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// AuthError reports missing, expired or revoked credentials. It is never
// retried by this layer.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return ErrAuth.Error()
	}
	return "authentication failed: " + e.Err.Error()
}

func (e *AuthError) Unwrap() error         { return e.Err }
func (e *AuthError) Is(target error) bool { return target == ErrAuth }

// UpstreamError reports any other task store failure, rate limiting
// included.
type UpstreamError struct {
	Op     string
	Status int // HTTP status when known, 0 otherwise
	Err    error
}

func (e *UpstreamError) Error() string {
	msg := "unknown error"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("failed to %s (HTTP %d): %s", e.Op, e.Status, msg)
	}
	return fmt.Sprintf("failed to %s: %s", e.Op, msg)
}

func (e *UpstreamError) Unwrap() error         { return e.Err }
func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// SourceFailure records why one source of a multi-list operation failed.
type SourceFailure struct {
	Source string // list title, or id when the title is unknown
	ID     string
	Err    error
}

// PartialFailure is returned by multi-list operations when no source
// succeeded. Results with only some failed sources carry their failures
// inline instead.
type PartialFailure struct {
	Op       string
	Failures []SourceFailure
}

func (e *PartialFailure) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Source, f.Err))
	}
	return fmt.Sprintf("%s failed for %d list(s): %s", e.Op, len(e.Failures), strings.Join(parts, "; "))
}

func (e *PartialFailure) Is(target error) bool { return target == ErrPartial }

// Unwrap exposes the per-source causes to errors.Is and errors.As.
func (e *PartialFailure) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// Kind returns the low-cardinality label for err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPartial):
		return KindPartial
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrAuth):
		return KindAuth
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUpstream):
		return KindUpstream
	default:
		return KindInternal
	}
}
