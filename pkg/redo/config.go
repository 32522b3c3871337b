// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package redo

import (
	"runtime"
	"time"

	"github.com/cockroachdb/redoapply/pkg/util/envutil"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	defaultWorkers = envutil.EnvOrDefaultInt(
		"COCKROACH_REDO_WORKERS", runtime.GOMAXPROCS(0))
	defaultRetryBackoff = envutil.EnvOrDefaultDuration(
		"COCKROACH_REDO_RETRY_BACKOFF", 20*time.Microsecond)
)

// Config contains the parameters of a ParallelRedo.
type Config struct {
	// Workers is the number of redo workers. Defaults to GOMAXPROCS.
	Workers int
	// RetryBackoff is how long a worker sleeps when no queued job can be
	// dispatched.
	RetryBackoff time.Duration
	// NewTaskLocal creates the scratch state of one worker. It is called
	// once per worker before any job runs. Defaults to no state.
	NewTaskLocal func(workerID int) (TaskLocal, error)
	// Registerer, if set, receives the redo metrics for the lifetime of the
	// ParallelRedo.
	Registerer prometheus.Registerer
}

// SetDefaults fills in unset fields.
func (cfg *Config) SetDefaults() {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if cfg.NewTaskLocal == nil {
		cfg.NewTaskLocal = func(int) (TaskLocal, error) { return noopTaskLocal{}, nil }
	}
}
