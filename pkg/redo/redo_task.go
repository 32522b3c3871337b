// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package redo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redoapply/pkg/util/log"
)

// redoTask is the loop run by one worker: pop, execute, notify.
type redoTask struct {
	id      int
	queue   *JobQueue
	local   TaskLocal
	backoff time.Duration
	metrics *Metrics

	busyLog  *log.EveryN
	executed int64
}

func (t *redoTask) run(ctx context.Context) (retErr error) {
	ctx = logtags.AddTag(ctx, "redo-worker", t.id)
	log.VEventf(ctx, 2, "redo worker started")
	defer func() {
		if err := t.local.Close(); err != nil && retErr == nil {
			retErr = errors.Wrapf(err, "redo worker %d: closing task state", t.id)
		}
		log.VEventf(ctx, 2, "redo worker finished after %d jobs", t.executed)
	}()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		job, status := t.queue.Pop()
		switch status {
		case PopJob:
			if err := ctx.Err(); err != nil {
				return errors.Wrapf(err, "redo worker %d", t.id)
			}
			if err := t.execute(ctx, job); err != nil {
				return err
			}
		case PopRetry:
			t.metrics.PopRetries.Inc()
			if t.busyLog.ShouldLog() {
				log.VEventf(ctx, 3, "no dispatchable job among %d queued, backing off %s",
					t.queue.Len(), t.backoff)
			}
			if timer == nil {
				timer = time.NewTimer(t.backoff)
			} else {
				timer.Reset(t.backoff)
			}
			select {
			case <-timer.C:
			case <-ctx.Done():
				return errors.Wrapf(ctx.Err(), "redo worker %d", t.id)
			}
		case PopDone:
			return nil
		}
	}
}

func (t *redoTask) execute(ctx context.Context, job Job) error {
	key, lsa := job.Key(), job.Order()
	start := time.Now()
	if err := job.Execute(ctx, t.local); err != nil {
		t.metrics.ExecuteFailures.Inc()
		return errors.Wrapf(err, "redo worker %d: applying %s at %s", t.id, key, lsa)
	}
	t.metrics.ExecuteLatency.Observe(time.Since(start).Seconds())
	t.metrics.JobsExecuted.Inc()
	t.executed++

	t.queue.NotifyDone(key)
	if job.IsBarrier() {
		t.metrics.BarrierJobs.Inc()
		t.queue.NotifyBarrierDone()
	}
	return nil
}
