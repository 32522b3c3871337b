// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package redo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redoapply/pkg/util/log"
	"github.com/cockroachdb/redoapply/pkg/util/syncutil"
	"golang.org/x/sync/errgroup"
)

// ParallelRedo owns a JobQueue and the pool of workers draining it.
//
// A single feeder adds jobs, optionally waits for the pool to go idle at
// checkpoints, then calls SetAddingFinished followed by
// WaitForTerminationAndStop. The first job failure aborts the run: queued jobs
// are dropped, the workers exit, and every following call returns the error.
type ParallelRedo struct {
	cfg     Config
	queue   *JobQueue
	metrics Metrics
	group   *errgroup.Group
	tasks   []*redoTask

	unregisterMetrics func()
	startTime         time.Time

	mu struct {
		syncutil.Mutex
		err     error
		stopped bool
	}
}

// NewParallelRedo creates the task state of every worker and starts the pool.
// The workers run until WaitForTerminationAndStop; cancelling ctx aborts the
// run.
func NewParallelRedo(ctx context.Context, cfg Config) (*ParallelRedo, error) {
	cfg.SetDefaults()
	p := &ParallelRedo{
		cfg:       cfg,
		queue:     NewJobQueue(),
		metrics:   makeMetrics(),
		startTime: time.Now(),
	}

	if cfg.Registerer != nil {
		unregister, err := p.metrics.register(cfg.Registerer, p.queue)
		if err != nil {
			return nil, err
		}
		p.unregisterMetrics = unregister
	}

	busyLog := log.Every(time.Second)
	for i := 0; i < cfg.Workers; i++ {
		local, err := cfg.NewTaskLocal(i)
		if err != nil {
			err = errors.Wrapf(err, "creating state for redo worker %d", i)
			for _, t := range p.tasks {
				err = errors.CombineErrors(err, t.local.Close())
			}
			if p.unregisterMetrics != nil {
				p.unregisterMetrics()
			}
			return nil, err
		}
		p.tasks = append(p.tasks, &redoTask{
			id:      i,
			queue:   p.queue,
			local:   local,
			backoff: cfg.RetryBackoff,
			metrics: &p.metrics,
			busyLog: &busyLog,
		})
	}

	log.Infof(ctx, "starting parallel redo with %d workers", cfg.Workers)
	var groupCtx context.Context
	p.group, groupCtx = errgroup.WithContext(ctx)
	for _, t := range p.tasks {
		t := t
		p.group.Go(func() error {
			if err := t.run(groupCtx); err != nil {
				p.fail(groupCtx, err)
				return err
			}
			return nil
		})
	}
	return p, nil
}

func (p *ParallelRedo) fail(ctx context.Context, err error) {
	p.mu.Lock()
	first := p.mu.err == nil
	if first {
		p.mu.err = err
	}
	p.mu.Unlock()
	if first {
		log.Errorf(ctx, "aborting parallel redo: %v", err)
		p.queue.Abort()
	}
}

// Err returns the failure that aborted the run, if any.
func (p *ParallelRedo) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mu.err
}

// Add queues a job. It does not wait for the workers. It returns an error
// only if the run has already been aborted, in which case the job is
// dropped. Adding after SetAddingFinished is a programming error.
func (p *ParallelRedo) Add(job Job) error {
	if err := p.Err(); err != nil {
		return err
	}
	p.queue.Push(job)
	p.metrics.JobsAdded.Inc()
	return nil
}

// SetAddingFinished records that the feeder is done. The workers exit once
// everything queued has executed.
func (p *ParallelRedo) SetAddingFinished() {
	p.queue.SetDoneAdding()
}

// WaitForIdle blocks until every job added so far has executed, or the run
// is aborted, in which case the failure is returned.
func (p *ParallelRedo) WaitForIdle() error {
	p.queue.WaitForIdle()
	return p.Err()
}

// WaitForTerminationAndStop waits for all workers to exit and returns the
// failure that aborted the run, if any. SetAddingFinished must have been
// called.
func (p *ParallelRedo) WaitForTerminationAndStop(ctx context.Context) error {
	if !p.queue.IsDoneAdding() {
		panic(errors.AssertionFailedf("parallel redo stopped before adding finished"))
	}
	p.mu.Lock()
	if p.mu.stopped {
		p.mu.Unlock()
		panic(errors.AssertionFailedf("parallel redo stopped twice"))
	}
	p.mu.stopped = true
	p.mu.Unlock()

	err := p.group.Wait()
	if p.unregisterMetrics != nil {
		p.unregisterMetrics()
	}
	if firstErr := p.Err(); firstErr != nil {
		return firstErr
	}
	if err != nil {
		return err
	}
	if n, inProgress := p.queue.Len(), p.queue.InProgress(); n != 0 || inProgress != 0 {
		panic(errors.AssertionFailedf(
			"parallel redo stopped with %d queued and %d in-progress jobs", n, inProgress))
	}

	var executed int64
	for _, t := range p.tasks {
		executed += t.executed
	}
	log.Infof(ctx, "parallel redo finished: %d jobs executed by %d workers in %s",
		executed, len(p.tasks), time.Since(p.startTime))
	return nil
}

// QueueDepth returns the number of jobs waiting to be dispatched.
func (p *ParallelRedo) QueueDepth() int {
	return p.queue.Len()
}

// InProgress returns the number of jobs currently executing.
func (p *ParallelRedo) InProgress() int {
	return p.queue.InProgress()
}

// Workers returns the size of the worker pool.
func (p *ParallelRedo) Workers() int {
	return len(p.tasks)
}

// Metrics returns the run's metrics.
func (p *ParallelRedo) Metrics() *Metrics {
	return &p.metrics
}
