// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package redo

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/redoapply/pkg/redo/redobase"
	"github.com/stretchr/testify/require"
)

type testJob struct {
	key     redobase.PageKey
	lsa     redobase.LSA
	barrier bool
	exec    func(ctx context.Context, j *testJob) error
}

var _ Job = (*testJob)(nil)

func (j *testJob) Key() redobase.PageKey { return j.key }
func (j *testJob) Order() redobase.LSA   { return j.lsa }
func (j *testJob) IsBarrier() bool       { return j.barrier }

func (j *testJob) Execute(ctx context.Context, _ TaskLocal) error {
	if j.exec == nil {
		return nil
	}
	return j.exec(ctx, j)
}

func (j *testJob) String() string {
	s := fmt.Sprintf("%s@%d", j.key, uint64(j.lsa))
	if j.barrier {
		s += "*"
	}
	return s
}

// parseKey parses "vol/page".
func parseKey(t *testing.T, s string) redobase.PageKey {
	t.Helper()
	parts := strings.Split(s, "/")
	require.Len(t, parts, 2, "malformed key %q", s)
	vol, err := strconv.Atoi(parts[0])
	require.NoError(t, err)
	page, err := strconv.Atoi(parts[1])
	require.NoError(t, err)
	return redobase.MakePageKey(redobase.VolumeID(vol), redobase.PageID(page))
}

func formatJobs(jobs []Job) string {
	var buf strings.Builder
	for _, j := range jobs {
		buf.WriteByte(' ')
		buf.WriteString(j.(fmt.Stringer).String())
	}
	return buf.String()
}

// produceJobsLocked lists the produce buffer in push order. The fifo has no
// iterator, so the jobs are cycled through it once.
func produceJobsLocked(q *JobQueue) []Job {
	q.produce.AssertHeld()
	n := q.produce.jobs.Len()
	jobs := make([]Job, 0, n)
	for i := 0; i < n; i++ {
		j := *q.produce.jobs.PeekFront()
		q.produce.jobs.PopFront()
		q.produce.jobs.PushBack(j)
		jobs = append(jobs, j)
	}
	return jobs
}

// printQueue renders the full queue state.
func printQueue(q *JobQueue) string {
	q.consume.Lock()
	defer q.consume.Unlock()
	idle := q.idleLocked()
	keys := make([]redobase.PageKey, 0, len(q.consume.inProgress))
	for k := range q.consume.inProgress {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	q.produce.Lock()
	produce := formatJobs(produceJobsLocked(q))
	q.produce.Unlock()

	var buf strings.Builder
	fmt.Fprintf(&buf, "produce:%s\n", produce)
	fmt.Fprintf(&buf, "consume:%s\n", formatJobs(q.consume.jobs))
	buf.WriteString("in-progress:")
	for _, k := range keys {
		fmt.Fprintf(&buf, " %s", k)
	}
	fmt.Fprintf(&buf, "\nbarrier: %t\n", q.consume.barrier)
	fmt.Fprintf(&buf, "idle: %t", idle)
	return buf.String()
}

func barrierInFlight(q *JobQueue) bool {
	q.consume.Lock()
	defer q.consume.Unlock()
	return q.consume.barrier
}
