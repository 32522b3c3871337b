// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package exit defines the process exit codes of redo-replay.
package exit

import "os"

// Code represents an exit code.
type Code struct {
	code int
}

// String implements fmt.Stringer.
func (c Code) String() string {
	switch c.code {
	case 0:
		return "success"
	case 1:
		return "error"
	case 4:
		return "command-line flag error"
	case 125:
		return "verification failed"
	default:
		return "unknown"
	}
}

// Int returns the numeric value of the code.
func (c Code) Int() int { return c.code }

// WithCode terminates the process.
func WithCode(code Code) {
	os.Exit(code.code)
}

// Success (0) represents a normal process termination.
func Success() Code { return Code{0} }

// UnspecifiedError (1) indicates the process has terminated with an
// error condition. The specific cause of the error can be found in
// the logging output.
func UnspecifiedError() Code { return Code{1} }

// CommandLineFlagError (4) indicates there was an error in the
// command-line parameters.
func CommandLineFlagError() Code { return Code{4} }

// VerifyFailed (125) indicates that the 'verify' command found that a
// parallel replay did not reproduce the serial replay's pages.
func VerifyFailed() Code { return Code{125} }
