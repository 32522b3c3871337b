// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import "os"

// SetExitFunc allows setting a function that will be called to exit
// the process when a Fatal message is generated.
//
// Call with a nil function to undo.
func SetExitFunc(f func(int)) {
	logging.mu.Lock()
	defer logging.mu.Unlock()
	logging.mu.exitOverride = f
}

// ResetExitFunc undoes any prior call to SetExitFunc.
func ResetExitFunc() {
	SetExitFunc(nil)
}

func exit(code int) {
	logging.mu.Lock()
	f := logging.mu.exitOverride
	_ = logging.mu.logger.Sync()
	logging.mu.Unlock()
	if f == nil {
		f = os.Exit
	}
	f(code)
}
