package identity

import (
	"errors"

	"github.com/samber/oops"
)

// Error codes for domain errors.
const (
	CodeInvalidInput     = "INVALID_INPUT"
	CodeInvalidOperation = "INVALID_OPERATION"
	CodeNotSupported     = "NOT_SUPPORTED"
	CodeMissingState     = "MISSING_STATE"
	CodeAlreadyExists    = "ALREADY_EXISTS"
)

// NewDomainError creates a coded domain error using oops.
func NewDomainError(code, message string) error {
	return oops.
		Code(code).
		In("identity").
		Errorf("%s", message)
}

// NewDomainErrorf creates a coded domain error with a formatted message.
func NewDomainErrorf(code, format string, args ...interface{}) error {
	return oops.
		Code(code).
		In("identity").
		Errorf(format, args...)
}

// WrapDomainError wraps an existing error with domain context.
func WrapDomainError(err error, code, message string) error {
	return oops.
		Code(code).
		In("identity").
		Wrapf(err, "%s", message)
}

// HasCode reports whether err carries the given domain error code.
func HasCode(err error, code string) bool {
	var oopsErr oops.OopsError
	if errors.As(err, &oopsErr) {
		return oopsErr.Code() == code
	}
	return false
}
