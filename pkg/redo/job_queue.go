// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package redo

import (
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/fifo"
	"github.com/cockroachdb/redoapply/pkg/redo/redobase"
	"github.com/cockroachdb/redoapply/pkg/util/syncutil"
)

// PopStatus is the outcome of JobQueue.Pop.
type PopStatus int

const (
	// PopJob means a job was dispatched to the caller. The caller must call
	// NotifyDone once the job has executed, and NotifyBarrierDone as well if
	// it is a barrier job.
	PopJob PopStatus = iota
	// PopRetry means no job can be dispatched right now because every queued
	// job waits on a busy page or on earlier jobs. The caller should back off
	// briefly and try again.
	PopRetry
	// PopDone means no more jobs will ever be dispatched.
	PopDone
)

func (s PopStatus) String() string {
	switch s {
	case PopJob:
		return "job"
	case PopRetry:
		return "retry"
	case PopDone:
		return "done"
	default:
		return "unknown"
	}
}

// JobQueue hands redo jobs from producers to concurrent consumers.
//
// Producers append to a produce buffer under its own lock and are never held
// up by consumers. Consumers drain a separate consume buffer; when it runs
// empty the produce buffer is moved into it. A consumer takes the first job
// in the consume buffer whose page is not in progress, so a busy page only
// delays later jobs on that same page.
//
// Lock ordering: consume.mu before produce.mu.
type JobQueue struct {
	produce struct {
		syncutil.Mutex
		jobs fifo.Queue[Job]
		// doneAdding is set once no more jobs will be pushed.
		doneAdding bool
	}

	consume struct {
		syncutil.Mutex
		jobs []Job
		// inProgress holds the keys of dispatched jobs that have not yet been
		// notified done.
		inProgress map[redobase.PageKey]struct{}
		// barrier is set while a barrier job is in flight. No job is dispatched
		// while it is set.
		barrier bool
		// aborted stops all dispatching after a fatal failure.
		aborted bool
	}
	// barrierCleared and idle are both tied to consume.Mutex.
	barrierCleared *sync.Cond
	idle           *sync.Cond
}

// jobQueueBackingPool is shared by the produce buffers of all queues.
var jobQueueBackingPool = fifo.MakeQueueBackingPool[Job]()

// NewJobQueue returns an empty queue.
func NewJobQueue() *JobQueue {
	q := &JobQueue{}
	q.produce.jobs = fifo.MakeQueue(&jobQueueBackingPool)
	q.consume.inProgress = make(map[redobase.PageKey]struct{})
	q.barrierCleared = sync.NewCond(&q.consume.Mutex)
	q.idle = sync.NewCond(&q.consume.Mutex)
	return q
}

// Push appends a job. It never waits on consumers. Pushing after
// SetDoneAdding is a programming error.
func (q *JobQueue) Push(job Job) {
	q.produce.Lock()
	defer q.produce.Unlock()
	if q.produce.doneAdding {
		panic(errors.AssertionFailedf(
			"job for %s at %s pushed after adding finished", job.Key(), job.Order()))
	}
	q.produce.jobs.PushBack(job)
}

// Pop dispatches the next eligible job. It blocks while a barrier job is in
// flight.
func (q *JobQueue) Pop() (Job, PopStatus) {
	q.consume.Lock()
	defer q.consume.Unlock()

	for q.consume.barrier && !q.consume.aborted {
		q.barrierCleared.Wait()
	}
	if q.consume.aborted {
		return nil, PopDone
	}

	if len(q.consume.jobs) == 0 {
		doneAdding := q.swapBuffersLocked()
		if len(q.consume.jobs) == 0 {
			if len(q.consume.inProgress) == 0 {
				q.idle.Broadcast()
			}
			if doneAdding {
				return nil, PopDone
			}
			return nil, PopRetry
		}
	}

	for i, job := range q.consume.jobs {
		key := job.Key()
		if job.IsBarrier() {
			// Everything queued ahead of a barrier must have finished before it
			// runs, and nothing queued behind it may overtake it.
			if i != 0 || len(q.consume.inProgress) != 0 {
				break
			}
		} else if _, busy := q.consume.inProgress[key]; busy {
			continue
		}

		q.removeLocked(i)
		q.consume.inProgress[key] = struct{}{}
		if job.IsBarrier() {
			q.consume.barrier = true
		}
		return job, PopJob
	}
	return nil, PopRetry
}

// swapBuffersLocked moves everything in the produce buffer, in push order,
// into the empty consume buffer. It returns whether adding was finished at the
// time of the move, which guarantees that an empty result will stay empty.
func (q *JobQueue) swapBuffersLocked() (doneAdding bool) {
	q.consume.AssertHeld()
	q.produce.Lock()
	defer q.produce.Unlock()
	q.consume.jobs = slices.Grow(q.consume.jobs[:0], q.produce.jobs.Len())
	for q.produce.jobs.Len() > 0 {
		q.consume.jobs = append(q.consume.jobs, *q.produce.jobs.PeekFront())
		q.produce.jobs.PopFront()
	}
	return q.produce.doneAdding
}

func (q *JobQueue) removeLocked(i int) {
	if i == 0 {
		q.consume.jobs[0] = nil
		q.consume.jobs = q.consume.jobs[1:]
		return
	}
	q.consume.jobs = slices.Delete(q.consume.jobs, i, i+1)
}

// NotifyDone marks the job on key as finished.
func (q *JobQueue) NotifyDone(key redobase.PageKey) {
	q.consume.Lock()
	defer q.consume.Unlock()
	if _, ok := q.consume.inProgress[key]; !ok {
		panic(errors.AssertionFailedf("job for %s notified done but not in progress", key))
	}
	delete(q.consume.inProgress, key)
	if q.idleLocked() {
		q.idle.Broadcast()
	}
}

// NotifyBarrierDone clears the barrier flag and wakes every blocked Pop.
func (q *JobQueue) NotifyBarrierDone() {
	q.consume.Lock()
	defer q.consume.Unlock()
	if !q.consume.barrier {
		panic(errors.AssertionFailedf("barrier done notified without a barrier in flight"))
	}
	q.consume.barrier = false
	q.barrierCleared.Broadcast()
}

// SetDoneAdding records that no more jobs will be pushed. Once the buffers
// drain, Pop returns PopDone. Calling it twice is a programming error.
func (q *JobQueue) SetDoneAdding() {
	q.produce.Lock()
	defer q.produce.Unlock()
	if q.produce.doneAdding {
		panic(errors.AssertionFailedf("adding already finished"))
	}
	q.produce.doneAdding = true
}

// IsDoneAdding returns whether SetDoneAdding was called.
func (q *JobQueue) IsDoneAdding() bool {
	q.produce.Lock()
	defer q.produce.Unlock()
	return q.produce.doneAdding
}

// WaitForIdle blocks until both buffers and the in-progress set are empty at
// the same time, or the queue is aborted.
func (q *JobQueue) WaitForIdle() {
	q.consume.Lock()
	defer q.consume.Unlock()
	for !q.consume.aborted && !q.idleLocked() {
		q.idle.Wait()
	}
}

// idleLocked returns whether nothing is queued or in progress. Every
// transition into the idle state happens with consume.Mutex held, which
// WaitForIdle relies on.
func (q *JobQueue) idleLocked() bool {
	q.consume.AssertHeld()
	if len(q.consume.inProgress) != 0 || len(q.consume.jobs) != 0 {
		return false
	}
	q.produce.Lock()
	defer q.produce.Unlock()
	return q.produce.jobs.Len() == 0
}

// Abort stops dispatching. Subsequent Pops return PopDone and waiters are
// released. Jobs still queued are dropped.
func (q *JobQueue) Abort() {
	q.consume.Lock()
	defer q.consume.Unlock()
	q.consume.aborted = true
	q.barrierCleared.Broadcast()
	q.idle.Broadcast()
}

// Len returns the number of jobs waiting to be dispatched.
func (q *JobQueue) Len() int {
	q.consume.Lock()
	defer q.consume.Unlock()
	q.produce.Lock()
	defer q.produce.Unlock()
	return len(q.consume.jobs) + q.produce.jobs.Len()
}

// InProgress returns the number of dispatched jobs not yet notified done.
func (q *JobQueue) InProgress() int {
	q.consume.Lock()
	defer q.consume.Unlock()
	return len(q.consume.inProgress)
}
