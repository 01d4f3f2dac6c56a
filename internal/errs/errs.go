// Package errs defines the error-kind taxonomy shared across every
// component: a categorized structured error plus the sentinel values
// components wrap it around, so callers classify failures the same way
// regardless of which subsystem raised them.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes a failure for retry logic and user-facing reporting.
type Kind string

const (
	// ConfigKind covers missing API keys, unknown instances, invalid cron
	// expressions — anything wrong with how the system was asked to run.
	ConfigKind Kind = "config"
	// StoreKind covers DB I/O failures and schema violations such as a
	// duplicate tool name.
	StoreKind Kind = "store"
	// ProviderKind covers LLM network, authentication, or streaming failure.
	ProviderKind Kind = "provider"
	// SandboxKind covers script compile errors, step-limit violations, and
	// forbidden operations (non-HTTPS URL, path escape).
	SandboxKind Kind = "sandbox"
	// ValidationKind covers malformed arguments: a non-unique old_text for
	// an edit, a duplicate program name.
	ValidationKind Kind = "validation"
	// NotFoundKind covers an unknown memory id, tool name, task id, or
	// program name.
	NotFoundKind Kind = "not_found"
	// UnknownKind is used when a cause can't be classified into the above.
	UnknownKind Kind = "unknown"
)

// Retryable reports whether a failure of this kind may succeed if retried
// unchanged. Only provider failures (network blips, rate limits) and
// store failures (lock contention) are considered retryable by default.
func (k Kind) Retryable() bool {
	switch k {
	case ProviderKind, StoreKind:
		return true
	default:
		return false
	}
}

// Error is the categorized, structured error returned by every component
// in this module in place of bare fmt.Errorf chains.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// New builds an Error of the given kind with a message and no cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind around an existing cause,
// classifying it from the cause's text if the kind is UnknownKind.
func Wrap(kind Kind, message string, cause error) *Error {
	e := &Error{Kind: kind, Message: message, Cause: cause}
	if kind == UnknownKind && cause != nil {
		e.Kind = Classify(cause)
	}
	return e
}

func (e *Error) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s]", e.Kind))
	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, " ")
}

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable reports whether retrying the failed operation unchanged may
// succeed.
func (e *Error) Retryable() bool {
	return e.Kind.Retryable()
}

// Is lets errors.Is match two *Error values that share a Kind, so callers
// can write errors.Is(err, errs.New(errs.NotFoundKind, "")) style checks
// without caring about the message.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

// Classify infers a Kind from an unstructured error's text by substring
// matching (the same approach as the agent package's classifyToolError),
// so sandbox/provider/store errors surfaced from third-party libraries
// still get a sensible Kind.
func Classify(err error) Kind {
	if err == nil {
		return UnknownKind
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	text := strings.ToLower(err.Error())

	switch {
	case strings.Contains(text, "not found"), strings.Contains(text, "no such"):
		return NotFoundKind
	case strings.Contains(text, "timeout"), strings.Contains(text, "deadline exceeded"),
		strings.Contains(text, "connection"), strings.Contains(text, "network"),
		strings.Contains(text, "rate limit"), strings.Contains(text, "429"),
		strings.Contains(text, "unauthorized"), strings.Contains(text, "authentication"):
		return ProviderKind
	case strings.Contains(text, "not unique"):
		return ValidationKind
	case strings.Contains(text, "database"), strings.Contains(text, "sql"),
		strings.Contains(text, "constraint"), strings.Contains(text, "unique"):
		return StoreKind
	case strings.Contains(text, "step limit"), strings.Contains(text, "forbidden operation"),
		strings.Contains(text, "path escape"), strings.Contains(text, "compile"):
		return SandboxKind
	case strings.Contains(text, "invalid"), strings.Contains(text, "required"),
		strings.Contains(text, "duplicate"), strings.Contains(text, "malformed"):
		return ValidationKind
	default:
		return UnknownKind
	}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
