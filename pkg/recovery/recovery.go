// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package recovery replays a redo log against a page store.
package recovery

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redoapply/pkg/redo"
	"github.com/cockroachdb/redoapply/pkg/redo/redobase"
	"github.com/cockroachdb/redoapply/pkg/redo/redojob"
	"github.com/cockroachdb/redoapply/pkg/redo/redolog"
	"github.com/cockroachdb/redoapply/pkg/storage/pagestore"
	"github.com/cockroachdb/redoapply/pkg/util/log"
)

// Options configures a replay.
type Options struct {
	// Log is the redo log. It is read sequentially by the feeder and at
	// random offsets by the redo workers.
	Log io.ReaderAt
	// Store receives the replayed pages.
	Store *pagestore.Store
	// Redo configures the worker pool. NewTaskLocal is ignored.
	Redo redo.Config
	// CheckpointEvery, if positive, makes the feeder wait for the workers to
	// drain every CheckpointEvery records.
	CheckpointEvery int
}

// Stats describes a finished replay.
type Stats struct {
	Records  int
	Barriers int
	// LastLSA is the LSA of the last record of the log.
	LastLSA redobase.LSA
	redojob.Stats
	Elapsed time.Duration
}

func (o *Options) validate() error {
	if o.Log == nil {
		return errors.AssertionFailedf("replay without a log")
	}
	if o.Store == nil {
		return errors.AssertionFailedf("replay without a store")
	}
	return nil
}

func (o *Options) scanner() *redolog.Scanner {
	return redolog.NewScanner(io.NewSectionReader(o.Log, 0, math.MaxInt64))
}

// Replay applies the log with a parallel redo pool. The store is flushed
// before returning.
func Replay(ctx context.Context, opts Options) (_ Stats, retErr error) {
	if err := opts.validate(); err != nil {
		return Stats{}, err
	}
	ctx = logtags.AddTag(ctx, "replay", nil)
	start := time.Now()
	factory := redojob.NewFactory(opts.Store, opts.Log)
	cfg := opts.Redo
	cfg.NewTaskLocal = factory.NewTaskLocal
	p, err := redo.NewParallelRedo(ctx, cfg)
	if err != nil {
		return Stats{}, err
	}
	stopped := false
	defer func() {
		// The pool must be stopped on every path so the workers exit.
		if !stopped {
			p.SetAddingFinished()
			retErr = errors.CombineErrors(retErr, p.WaitForTerminationAndStop(ctx))
		}
	}()

	var stats Stats
	s := opts.scanner()
	for s.Next() {
		h := s.Header()
		job, err := factory.NewJob(h)
		if err != nil {
			return Stats{}, err
		}
		if err := p.Add(job); err != nil {
			return Stats{}, err
		}
		stats.Records++
		if job.IsBarrier() {
			stats.Barriers++
		}
		stats.LastLSA = h.LSA
		if opts.CheckpointEvery > 0 && stats.Records%opts.CheckpointEvery == 0 {
			if err := p.WaitForIdle(); err != nil {
				return Stats{}, err
			}
			log.Infof(ctx, "applied up to %s (%d records)", h.LSA, stats.Records)
		}
	}
	if err := s.Err(); err != nil {
		return Stats{}, errors.Wrapf(err, "scanning redo log after %d records", stats.Records)
	}
	if stats.LastLSA.IsNull() {
		log.Warningf(ctx, "redo log is empty, nothing to replay")
	}

	stopped = true
	p.SetAddingFinished()
	if err := p.WaitForTerminationAndStop(ctx); err != nil {
		return Stats{}, err
	}
	if err := opts.Store.Flush(); err != nil {
		return Stats{}, err
	}
	stats.Stats = factory.Stats()
	stats.Elapsed = time.Since(start)
	log.Infof(ctx, "replayed %d records (%d barriers) in %s: %d applied, %d skipped",
		stats.Records, stats.Barriers, stats.Elapsed, stats.Applied, stats.Skipped)
	return stats, nil
}

// ReplaySerial applies the log in order on the calling goroutine. It produces
// the state a parallel replay must reproduce.
func ReplaySerial(ctx context.Context, opts Options) (_ Stats, retErr error) {
	if err := opts.validate(); err != nil {
		return Stats{}, err
	}
	ctx = logtags.AddTag(ctx, "replay", "serial")
	start := time.Now()
	factory := redojob.NewFactory(opts.Store, opts.Log)
	local, err := factory.NewTaskLocal(0)
	if err != nil {
		return Stats{}, err
	}
	defer func() { retErr = errors.CombineErrors(retErr, local.Close()) }()

	var stats Stats
	s := opts.scanner()
	for s.Next() {
		if err := ctx.Err(); err != nil {
			return Stats{}, errors.Wrap(err, "serial replay interrupted")
		}
		h := s.Header()
		job, err := factory.NewJob(h)
		if err != nil {
			return Stats{}, err
		}
		if err := job.Execute(ctx, local); err != nil {
			return Stats{}, errors.Wrapf(err, "applying %s at %s", h.Key, h.LSA)
		}
		stats.Records++
		if job.IsBarrier() {
			stats.Barriers++
		}
		stats.LastLSA = h.LSA
	}
	if err := s.Err(); err != nil {
		return Stats{}, errors.Wrapf(err, "scanning redo log after %d records", stats.Records)
	}
	if err := opts.Store.Flush(); err != nil {
		return Stats{}, err
	}
	stats.Stats = factory.Stats()
	stats.Elapsed = time.Since(start)
	log.Infof(ctx, "replayed %d records serially in %s", stats.Records, stats.Elapsed)
	return stats, nil
}
