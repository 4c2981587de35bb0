package errors

import (
	"fmt"
)

var ErrNotFound = fmt.Errorf("not found")
var ErrParse = fmt.Errorf("parse error")
var ErrSchema = fmt.Errorf("schema error")
var ErrUnsupportedType = fmt.Errorf("unsupported type")
var ErrIO = fmt.Errorf("io error")

type myError struct {
	msg    string
	target error
	cause  error
}

func (m myError) Error() string        { return m.msg }
func (m myError) Is(target error) bool { return target == m.target }
func (m myError) Unwrap() error        { return m.cause }

func newError(target, cause error, format string, args ...any) error {
	return &myError{
		msg:    fmt.Sprintf(format, args...),
		target: target,
		cause:  cause,
	}
}

// NewNotFoundError reports a missing input file
func NewNotFoundError(path string, cause error) error {
	return newError(ErrNotFound, cause, "%s: file not found", path)
}

func NewParseError(msg string, cause error) error {
	return newError(ErrParse, cause, "%s", msg)
}

func NewSchemaError(msg string) error {
	return newError(ErrSchema, nil, "%s", msg)
}

func NewUnsupportedTypeError(msg string) error {
	return newError(ErrUnsupportedType, nil, "%s", msg)
}

// NewIOError wraps a failure to read or write path during op ("read", "create", "write" ...)
func NewIOError(op, path string, cause error) error {
	if cause == nil {
		return newError(ErrIO, nil, "%s %s failed", op, path)
	}
	return newError(ErrIO, cause, "%s %s: %s", op, path, cause.Error())
}

// WithPath prefixes the message of err with the file it relates to, keeping
// the error kind intact.
func WithPath(path string, err error) error {
	if err == nil {
		return nil
	}

	if me, ok := err.(*myError); ok {
		return &myError{
			msg:    path + ": " + me.msg,
			target: me.target,
			cause:  me.cause,
		}
	}

	return fmt.Errorf("%s: %w", path, err)
}
