package dberr

import (
	"errors"
	"fmt"
)

// Error kinds. Use errors.Is to classify an error returned by the engine.
var (
	// ErrValidation bad user input, the statement is rejected and nothing changes
	ErrValidation = errors.New("validation error")

	// ErrCapacity table or page cache exhausted
	ErrCapacity = errors.New("capacity error")

	// ErrIO the backing file could not be opened, read or written
	ErrIO = errors.New("io error")

	// ErrCorruption the backing file does not have a valid layout
	ErrCorruption = errors.New("corruption error")
)

// Error is an engine error of a specific kind. Msg is the text reported to the user.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Msg, e.Err.Error())
	}
	return e.Msg
}

// Is reports whether target is the kind of the error
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(msg string) error {
	return &Error{Kind: ErrValidation, Msg: msg}
}

func Capacity(msg string) error {
	return &Error{Kind: ErrCapacity, Msg: msg}
}

func Corruption(format string, args ...interface{}) error {
	return &Error{Kind: ErrCorruption, Msg: fmt.Sprintf(format, args...)}
}

// IO wraps err as an ErrIO failure of the operation described by msg
func IO(msg string, err error) error {
	return &Error{Kind: ErrIO, Msg: msg, Err: err}
}
