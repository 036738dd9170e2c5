package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can react without parsing messages.
type Kind string

const (
	KindUnknown           Kind = "unknown"
	KindMissingCredential Kind = "missing_credential"
	KindUpstream          Kind = "upstream_failure"
	KindValidation        Kind = "validation_failure"
	KindUnsupported       Kind = "unsupported_operation"
	KindConflict          Kind = "conflict"
	KindNotFound          Kind = "not_found"
)

// Error is a classified failure. Message is the human-readable reason; for
// upstream failures it is the provider's own reported reason when available.
type Error struct {
	Kind     Kind
	Provider string
	Status   int
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return "unknown error"
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s", e.Provider, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Reason returns the bare message without the provider prefix.
func (e *Error) Reason() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

// New creates a classified error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. The message defaults to err's text.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// MissingCredential reports that no key was available for provider.
func MissingCredential(provider string) *Error {
	return &Error{
		Kind:     KindMissingCredential,
		Provider: provider,
		Message:  fmt.Sprintf("missing API key: supply one in the request or set the process default for %s", provider),
	}
}

// Upstream reports a failed provider call.
func Upstream(provider string, status int, message string, err error) *Error {
	return &Error{Kind: KindUpstream, Provider: provider, Status: status, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
