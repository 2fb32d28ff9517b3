package backend

import "errors"

// ErrorKind categorizes edit backend failures.
type ErrorKind int

const (
	// KindUnavailable indicates a missing credential or dependency.
	KindUnavailable ErrorKind = iota
	// KindRequestFailed indicates an upload, network, or non-success status error.
	KindRequestFailed
	// KindResponseUnparseable indicates the call succeeded but no image could be located.
	KindResponseUnparseable
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnavailable:
		return "backend unavailable"
	case KindRequestFailed:
		return "backend request failed"
	case KindResponseUnparseable:
		return "backend response unparseable"
	default:
		return "backend error"
	}
}

// Error is returned by every Editor implementation.
type Error struct {
	Kind    ErrorKind
	Backend string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Backend + ": " + e.Kind.String() + ": " + e.Message
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a backend *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var be *Error
	return errors.As(err, &be) && be.Kind == kind
}

func newError(backend string, kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Backend: backend, Message: msg, Err: err}
}
