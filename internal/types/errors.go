package types

import "fmt"

// ErrorKind distinguishes the error taxonomy from spec §7, independent of
// which stage raised it.
type ErrorKind string

const (
	KindContract   ErrorKind = "contract"
	KindNetwork    ErrorKind = "network"
	KindValidation ErrorKind = "validation"
	KindDiscovery  ErrorKind = "discovery"
	KindMirror     ErrorKind = "mirror"
	KindRegistry   ErrorKind = "registry"
)

// Error is a typed-kind wrapper so callers can switch on Kind for exit
// codes and structured log fields without chaining sentinel comparisons.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap builds an *Error with the given kind, operation label, and cause.
func Wrap(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the Kind of err if it (or something it wraps) is an
// *Error, otherwise "".
func KindOf(err error) ErrorKind {
	var e *Error
	if asError(err, &e) {
		return e.Kind
	}
	return ""
}

// asError is a small local errors.As to avoid importing errors twice in
// call sites that already alias it.
func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// NetworkFailureKind distinguishes sub-kinds of NetworkError per spec §4.1.
type NetworkFailureKind string

const (
	NetworkTimeout    NetworkFailureKind = "timeout"
	NetworkHTTPStatus NetworkFailureKind = "http_status"
	NetworkRequest    NetworkFailureKind = "request_error"
	NetworkOther      NetworkFailureKind = "other"
)

// NetworkError carries the sub-kind distinguished by spec §4.1.
type NetworkError struct {
	Sub        NetworkFailureKind
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("network error (%s, status %d): %v", e.Sub, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("network error (%s): %v", e.Sub, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
