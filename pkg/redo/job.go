// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package redo

import (
	"context"

	"github.com/cockroachdb/redoapply/pkg/redo/redobase"
)

// Job is a unit of redo work derived from one log record.
//
// The engine only looks at Key, Order and IsBarrier. Jobs sharing a key are
// executed one at a time in the order they were added. A barrier job runs
// after every job added before it has finished, and no job added after it
// starts before it returns.
type Job interface {
	// Key returns the page mutated by the job.
	Key() redobase.PageKey
	// Order returns the LSA of the record the job was derived from.
	Order() redobase.LSA
	// IsBarrier returns whether the job must run in isolation.
	IsBarrier() bool
	// Execute applies the job. local is the scratch state of the worker
	// running the job; it is never shared with another worker. An error is
	// fatal to the whole redo run.
	Execute(ctx context.Context, local TaskLocal) error
}

// TaskLocal is scratch state owned by a single redo worker, such as a log
// cursor and decompression buffers.
type TaskLocal interface {
	Close() error
}

type noopTaskLocal struct{}

func (noopTaskLocal) Close() error { return nil }
