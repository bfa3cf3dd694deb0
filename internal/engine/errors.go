package engine

import "errors"

// unavailableError signals that the native runtime was not built in or could
// not be loaded, so callers can report it distinctly from model failures.
type unavailableError struct{ msg string }

func (e unavailableError) Error() string { return e.msg }

// ErrUnavailable constructs an unavailableError.
func ErrUnavailable(msg string) error { return unavailableError{msg: msg} }

// IsUnavailable reports whether err indicates a missing native runtime.
func IsUnavailable(err error) bool {
	var u unavailableError
	return errors.As(err, &u)
}

// NativeError carries the message reported by the native runtime verbatim.
type NativeError struct{ Msg string }

func (e *NativeError) Error() string { return e.Msg }

// IsNative reports whether err originated in the native runtime.
func IsNative(err error) bool {
	var n *NativeError
	return errors.As(err, &n)
}
