// Package faults defines the error taxonomy every failure in the wizard is
// converted to before it reaches a view or an HTTP response. External
// platform error codes never leak past their adapter.
package faults

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by how the user can recover from it.
type Kind string

const (
	// KindValidation is a user-correctable, field-level input error.
	KindValidation Kind = "validation"
	// KindDuplicate means the resource (an email) is already registered.
	KindDuplicate Kind = "duplicate"
	// KindNetwork is a timeout or unreachable/5xx failure after retries.
	KindNetwork Kind = "network"
	// KindExternalPlatform is a domain error reported by the payment or
	// identity platform (weak password, declined card, ...).
	KindExternalPlatform Kind = "external_platform"
	// KindNotAuthenticated means a federated session was expected but absent.
	KindNotAuthenticated Kind = "not_authenticated"
	// KindInvariant is a broken internal assumption; fatal for the
	// current operation, never patched over with a guessed value.
	KindInvariant Kind = "invariant"
)

// Fault is a classified failure with a user-presentable message.
type Fault struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Fault) Unwrap() error { return f.Err }

// New builds a Fault of the given kind.
func New(kind Kind, message string) *Fault {
	return &Fault{Kind: kind, Message: message}
}

// Wrap builds a Fault of the given kind around an underlying error.
func Wrap(kind Kind, message string, err error) *Fault {
	return &Fault{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from err, or KindExternalPlatform when the
// error was never classified.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindExternalPlatform
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf extracts the user-presentable message, falling back to a
// generic one for unclassified errors.
func MessageOf(err error) string {
	var f *Fault
	if errors.As(err, &f) {
		return f.Message
	}
	return "Une erreur est survenue"
}
