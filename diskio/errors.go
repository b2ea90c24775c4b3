package diskio

import (
	"fmt"

	"emperror.dev/errors"
)

type ErrorCode string

const (
	ErrCodeConfiguration     ErrorCode = "E_BADCONFIG"
	ErrCodeReservation       ErrorCode = "E_RESERVATION"
	ErrCodeInsufficientSpace ErrorCode = "E_NOSPACE"
	ErrCodeName              ErrorCode = "E_BADNAME"
	ErrCodeReservedName      ErrorCode = "E_RESERVEDNAME"
	ErrCodePathResolution    ErrorCode = "E_BADPATH"
	ErrCodeUnknownError      ErrorCode = "E_UNKNOWN"
)

type Error struct {
	code ErrorCode

	// path is the logical name or path that was provided by the caller when
	// the error occurred.
	path string

	// resolved is the fully resolved path on the host relevant to the error,
	// if one exists.
	resolved string

	// err is the underlying error that caused this error, if any.
	err error
}

// newError returns a new error instance with a stack trace associated with it.
func newError(code ErrorCode, err error) error {
	return errors.WithStackDepth(&Error{code: code, err: err}, 1)
}

// NewNameError returns a new error for a logical file name that cannot be
// used, wrapped with a stack trace.
func NewNameError(name string) error {
	return errors.WithStackDepth(&Error{code: ErrCodeName, path: name}, 1)
}

// NewReservedNameError returns a new error for a caller supplied path that
// resolves to the reservation sentinel file, wrapped with a stack trace.
func NewReservedNameError(path, resolved string) error {
	return errors.WithStackDepth(&Error{code: ErrCodeReservedName, path: path, resolved: resolved}, 1)
}

// NewBadPathResolution returns a new bad path resolution error wrapped with
// a stack trace.
func NewBadPathResolution(path, resolved string) error {
	return errors.WithStackDepth(&Error{code: ErrCodePathResolution, path: path, resolved: resolved}, 1)
}

// NewConfigurationError returns a configuration error with the given reason,
// wrapped with a stack trace.
func NewConfigurationError(reason string) error {
	return errors.WithStackDepth(&Error{code: ErrCodeConfiguration, err: errors.New(reason)}, 1)
}

// Code returns the ErrorCode for this specific error instance.
func (e *Error) Code() ErrorCode {
	return e.code
}

func (e *Error) Error() string {
	switch e.code {
	case ErrCodeConfiguration:
		return "diskio: invalid configuration: " + e.Cause().Error()
	case ErrCodeReservation:
		return "diskio: reservation violated: real usage exceeds the configured capacity"
	case ErrCodeInsufficientSpace:
		return "diskio: not enough reserved space"
	case ErrCodeName:
		p := e.path
		if p == "" {
			p = "<empty>"
		}
		return fmt.Sprintf("diskio: invalid file name [%s]", p)
	case ErrCodeReservedName:
		return fmt.Sprintf("diskio: path [%s] resolves to the reservation sentinel: %s", e.path, e.resolved)
	case ErrCodePathResolution:
		r := e.resolved
		if r == "" {
			r = "<empty>"
		}
		return fmt.Sprintf("diskio: path [%s] resolves to a location outside the managed folder: %s", e.path, r)
	case ErrCodeUnknownError:
		fallthrough
	default:
		return fmt.Sprintf("diskio: an error occurred: %s", e.Cause())
	}
}

// Cause returns the underlying cause of this error.
func (e *Error) Cause() error {
	if e.err == nil {
		return errors.New("no error cause")
	}
	return e.err
}

// Unwrap returns the underlying error that caused this error, may be nil.
func (e *Error) Unwrap() error {
	return e.err
}

// IsErrorCode checks if the given error is a diskio Error and carries the
// provided code.
func IsErrorCode(err error, code ErrorCode) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.code == code
	}
	return false
}
