// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

//go:build !deadlock && race

package syncutil

import (
	"sync"
	"sync/atomic"
)

// DeadlockEnabled is true if the deadlock detector is enabled.
const DeadlockEnabled = false

// Race builds track write ownership so that AssertHeld can catch missing
// locks. The tracking costs an atomic on every Lock and Unlock.

// A Mutex is a mutual exclusion lock.
type Mutex struct {
	mu      sync.Mutex
	wLocked int32 // updated atomically
}

// Lock locks m.
func (m *Mutex) Lock() {
	m.mu.Lock()
	atomic.StoreInt32(&m.wLocked, 1)
}

// TryLock tries to lock m and reports whether it succeeded.
func (m *Mutex) TryLock() bool {
	if !m.mu.TryLock() {
		return false
	}
	atomic.StoreInt32(&m.wLocked, 1)
	return true
}

// Unlock unlocks m.
func (m *Mutex) Unlock() {
	atomic.StoreInt32(&m.wLocked, 0)
	m.mu.Unlock()
}

// AssertHeld may panic if the mutex is not locked (but it is not required to
// do so). Functions which require that their callers hold a particular lock
// may use this to enforce this requirement more directly than relying on the
// race detector.
//
// Note that we do not require the lock to be held by any particular thread,
// just that some thread holds the lock. This is both more efficient and allows
// for rare cases where a mutex is locked in one thread and used in another.
func (m *Mutex) AssertHeld() {
	if atomic.LoadInt32(&m.wLocked) == 0 {
		panic("mutex is not write locked")
	}
}

// An RWMutex is a reader/writer mutual exclusion lock.
type RWMutex struct {
	sync.RWMutex
	wLocked int32 // updated atomically
}

// Lock locks rw for writing.
func (rw *RWMutex) Lock() {
	rw.RWMutex.Lock()
	atomic.StoreInt32(&rw.wLocked, 1)
}

// Unlock unlocks rw for writing.
func (rw *RWMutex) Unlock() {
	atomic.StoreInt32(&rw.wLocked, 0)
	rw.RWMutex.Unlock()
}

// AssertHeld may panic if the mutex is not locked for writing (but it is not
// required to do so).
func (rw *RWMutex) AssertHeld() {
	if atomic.LoadInt32(&rw.wLocked) == 0 {
		panic("mutex is not write locked")
	}
}
