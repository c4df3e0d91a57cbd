package gpiosim

import (
	"errors"
	"os"
	"syscall"
)

type Error string

func (e Error) Error() string { return string(e) }

const ErrorEnvironmentUnsupported = Error("Environment unsupported")
const ErrorResourceUnavailable = Error("Resource unavailable")
const ErrorAlreadyExists = Error("Already exists")
const ErrorInvalidState = Error("Invalid state")
const ErrorInvalidArgument = Error("Invalid argument")
const ErrorProtocolViolation = Error("Protocol violation")
const ErrorIOFailure = Error("I/O failure")
const ErrorActivationFailed = Error("Activation failed")

// OpError is returned by all fallible operations. It matches its Kind with
// errors.Is and unwraps to the underlying cause.
type OpError struct {
	Kind Error
	Op   string
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

func (e *OpError) Is(target error) bool {
	return target == e.Kind
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func newError(kind Error, op string, err error) error {
	return &OpError{Kind: kind, Op: op, Err: err}
}

func ioError(op string, err error) error {
	return newError(ErrorIOFailure, op, err)
}

// itemError classifies a failure to create a named configfs item
func itemError(op string, err error) error {
	if errors.Is(err, os.ErrExist) {
		return newError(ErrorAlreadyExists, op, err)
	}
	return ioError(op, err)
}

func errorBusy(op string) error {
	return newError(ErrorInvalidState, op, syscall.EBUSY)
}

func errorNoDev(op string) error {
	return newError(ErrorInvalidState, op, syscall.ENODEV)
}
