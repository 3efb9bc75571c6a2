package wire

import (
	"errors"
	"fmt"
)

// Code is the job master's error taxonomy. Callers recover it with
// errors.As instead of matching on error strings.
type Code string

const (
	// CodeUnknownPlan means the plan name is not registered.
	CodeUnknownPlan Code = "UNKNOWN_PLAN"
	// CodeCapacityExceeded means admission was denied after a purge attempt.
	CodeCapacityExceeded Code = "CAPACITY_EXCEEDED"
	// CodeNotFound means the requested plan id does not exist.
	CodeNotFound Code = "NOT_FOUND"
	// CodeInvalidArgument means the plan configuration payload was malformed.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	// CodeInternal means plan expansion or result-join raised.
	CodeInternal Code = "INTERNAL"
)

// Error is the job master's single error type. Every error surfaced
// across a component boundary carries one of the taxonomy codes above.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds a taxonomy error.
func NewError(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the taxonomy code from err, or CodeInternal if err does
// not carry one.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
