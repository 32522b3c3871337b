// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package clierror attaches process exit codes to command errors.
package clierror

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redoapply/pkg/cli/exit"
)

// Error is an error carrying the exit code the process should terminate
// with.
type Error struct {
	exitCode exit.Code
	cause    error
}

// NewError instantiates a new Error.
func NewError(cause error, exitCode exit.Code) error {
	return &Error{exitCode: exitCode, cause: cause}
}

// NewErrorf is NewError with an error built from a format string.
func NewErrorf(exitCode exit.Code, format string, args ...interface{}) error {
	return &Error{exitCode: exitCode, cause: errors.Newf(format, args...)}
}

// GetExitCode returns the exit code carried by e.
func (e *Error) GetExitCode() exit.Code {
	return e.exitCode
}

// Error implements the error interface.
func (e *Error) Error() string { return e.cause.Error() }

// Cause implements causer.
func (e *Error) Cause() error { return e.cause }

// Unwrap implements the Go 1.13 errors interface.
func (e *Error) Unwrap() error { return e.cause }

// Format implements fmt.Formatter.
func (e *Error) Format(s fmt.State, verb rune) { errors.FormatError(e, s, verb) }

// FormatError implements errors.Formatter.
func (e *Error) FormatError(p errors.Printer) error {
	if p.Detail() {
		p.Printf("error with exit code: %s", e.exitCode)
	}
	return e.cause
}

// ExitCode returns the exit code to use for err.
func ExitCode(err error) exit.Code {
	if err == nil {
		return exit.Success()
	}
	var e *Error
	if errors.As(err, &e) {
		return e.GetExitCode()
	}
	return exit.UnspecifiedError()
}
