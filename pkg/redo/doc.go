// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package redo applies redo jobs in parallel during recovery.
//
// Jobs are added to a JobQueue by a single feeder and drained by a fixed
// pool of workers owned by a ParallelRedo. Jobs on the same page run one at a
// time in the order they were added; barrier jobs run alone, after
// everything added before them and before everything added after them.
package redo
