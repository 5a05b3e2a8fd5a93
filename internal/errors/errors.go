// Package errors defines the failure taxonomy of the gobox client.
//
// Every failure the client can observe falls into one Kind. Callers wrap the
// underlying cause with New and test for a kind with the standard library's
// errors.Is against the exported sentinels:
//
//	if errors.Is(err, apperrors.ErrIdentityUnavailable) { ... }
//
// None of these errors are retried automatically.
package errors

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a failure.
type Kind string

const (
	// KindIdentityUnavailable: the fingerprint could not be computed. Nothing
	// is cached, a later call may succeed.
	KindIdentityUnavailable Kind = "identity.unavailable"
	// KindTransportOpenFailed: the websocket handshake never completed.
	KindTransportOpenFailed Kind = "transport.open_failed"
	// KindTransportError: the connection failed after a successful open.
	KindTransportError Kind = "transport.error"
	// KindTransportClosed: normal or remote-initiated close.
	KindTransportClosed Kind = "transport.closed"
	// KindFitFailed: the rendering surface had no usable size. Non-fatal.
	KindFitFailed Kind = "emulator.fit_failed"
	// KindConfig: invalid configuration.
	KindConfig Kind = "config.invalid"
	// KindHealth: the backend health check failed.
	KindHealth Kind = "backend.unhealthy"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrIdentityUnavailable = &Error{Kind: KindIdentityUnavailable}
	ErrTransportOpenFailed = &Error{Kind: KindTransportOpenFailed}
	ErrTransportError      = &Error{Kind: KindTransportError}
	ErrTransportClosed     = &Error{Kind: KindTransportClosed}
	ErrFitFailed           = &Error{Kind: KindFitFailed}
	ErrConfig              = &Error{Kind: KindConfig}
	ErrHealth              = &Error{Kind: KindHealth}
)

// Error is a categorised failure with the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// New wraps err with a kind and the operation name.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf is New with a formatted cause.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Message returns a short human-readable description suitable for the
// terminal surface.
func Message(err error) string {
	switch KindOf(err) {
	case KindIdentityUnavailable:
		return "could not determine device identity"
	case KindTransportOpenFailed:
		return "could not reach the GoBox server"
	case KindTransportError:
		return "connection to the GoBox server failed"
	case KindTransportClosed:
		return "connection closed"
	case KindFitFailed:
		return "terminal surface not ready"
	case KindConfig:
		return "invalid configuration"
	case KindHealth:
		return "GoBox server is unhealthy"
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
