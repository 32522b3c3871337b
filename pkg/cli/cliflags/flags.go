// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package cliflags defines the command-line flags of redo-replay.
package cliflags

// FlagInfo contains the static information for a CLI flag.
type FlagInfo struct {
	// Name of the flag as used on the command line.
	Name string
	// Shorthand is the short form of the flag (optional).
	Shorthand string
	// EnvVar is the name of the environment variable through which the flag
	// value can be controlled (optional).
	EnvVar string
	// Description of the flag.
	Description string
}

// Usage returns the usage string for the flag.
func (f FlagInfo) Usage() string {
	if f.EnvVar == "" {
		return f.Description
	}
	return f.Description + "\nEnvironment variable: " + f.EnvVar
}

var (
	LogPath = FlagInfo{
		Name:        "log",
		EnvVar:      "COCKROACH_REDO_LOG",
		Description: `Path of the redo log file.`,
	}

	OutPath = FlagInfo{
		Name:        "out",
		Shorthand:   "o",
		Description: `Path of the redo log file to create.`,
	}

	StorePath = FlagInfo{
		Name:        "store",
		Shorthand:   "s",
		EnvVar:      "COCKROACH_REDO_STORE",
		Description: `Directory of the page store the log is replayed into.`,
	}

	PageSize = FlagInfo{
		Name:        "page-size",
		Description: `Size in bytes of a page.`,
	}

	Records = FlagInfo{
		Name:        "records",
		Description: `Number of records to generate.`,
	}

	Volumes = FlagInfo{
		Name:        "volumes",
		Description: `Number of volumes the generated records write to.`,
	}

	Pages = FlagInfo{
		Name:        "pages",
		Description: `Initial number of pages of every volume.`,
	}

	Seed = FlagInfo{
		Name:        "seed",
		Description: `Seed of the record generator.`,
	}

	BarrierEvery = FlagInfo{
		Name: "barrier-every",
		Description: `
Number of records between volume extensions. Zero only extends the volumes
once, before the first page write.`,
	}

	MaxWriteBytes = FlagInfo{
		Name:        "max-write-bytes",
		Description: `Maximum number of bytes written by a page record.`,
	}

	Workers = FlagInfo{
		Name:        "workers",
		EnvVar:      "COCKROACH_REDO_WORKERS",
		Description: `Number of redo workers. Zero uses one per CPU.`,
	}

	RetryBackoff = FlagInfo{
		Name:   "backoff",
		EnvVar: "COCKROACH_REDO_RETRY_BACKOFF",
		Description: `
How long a redo worker sleeps when every queued record targets a page that is
being redone by another worker.`,
	}

	CheckpointEvery = FlagInfo{
		Name: "checkpoint-every",
		Description: `
Wait for the workers to drain every so many records. Zero disables
checkpoints.`,
	}

	SyncWrites = FlagInfo{
		Name:        "sync",
		Description: `Sync page writes to disk.`,
	}

	MetricsAddr = FlagInfo{
		Name:   "metrics-addr",
		EnvVar: "COCKROACH_REDO_METRICS_ADDR",
		Description: `
Address on which to serve Prometheus metrics at /metrics while replaying.
Empty disables the endpoint.`,
	}

	LogFormat = FlagInfo{
		Name:        "log-format",
		Description: `Format of the log output: text or json.`,
	}

	LogThreshold = FlagInfo{
		Name:        "log-threshold",
		Description: `Minimum severity of logged messages.`,
	}

	Verbosity = FlagInfo{
		Name:        "verbosity",
		Shorthand:   "v",
		Description: `Verbosity of the log output.`,
	}

	Redactable = FlagInfo{
		Name:        "redactable-logs",
		Description: `Keep redaction markers around sensitive values in log messages.`,
	}
)
