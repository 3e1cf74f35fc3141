// Package rolestatus implements the per-role counters that drive the
// reconciler: desired, requested, actual, releasing, and the
// cumulative started/failed/start-failed/completed tallies.
package rolestatus

import (
	"sync"
	"sync/atomic"
)

// Status is the set of counters for one role. The hot counters are
// atomics so handlers on different containers of the same role never
// block each other; LastFailureMessage and ExcludeFromFlexing sit
// behind a small mutex since they change far less often and benefit
// from a consistent read together with the rest of Snapshot.
type Status struct {
	Desired atomic.Int64

	requested atomic.Int64
	actual    atomic.Int64
	releasing atomic.Int64

	started     atomic.Int64
	failed      atomic.Int64
	startFailed atomic.Int64
	completed   atomic.Int64

	mu                 sync.RWMutex
	lastFailureMessage string
	excludeFromFlexing bool
}

// New creates a Status with the given desired instance count.
func New(desired int) *Status {
	s := &Status{}
	s.Desired.Store(int64(desired))
	return s
}

func (s *Status) IncRequested() { s.requested.Add(1) }

// DecRequested decrements the outstanding-request count, never taking
// it below zero: an allocation with no matching outstanding request
// leaves it at zero.
func (s *Status) DecRequested() {
	for {
		cur := s.requested.Load()
		if cur <= 0 || s.requested.CompareAndSwap(cur, cur-1) {
			return
		}
	}
}

func (s *Status) IncActual()      { s.actual.Add(1) }
func (s *Status) DecActual()      { s.actual.Add(-1) }
func (s *Status) IncReleasing()   { s.releasing.Add(1) }
func (s *Status) DecReleasing()   { s.releasing.Add(-1) }
func (s *Status) IncStarted()     { s.started.Add(1) }
func (s *Status) IncStartFailed() { s.startFailed.Add(1) }
func (s *Status) IncCompleted()   { s.completed.Add(1) }

// NoteFailed increments the failed counter and records msg as the most
// recent failure diagnostic for this role.
func (s *Status) NoteFailed(msg string) {
	s.failed.Add(1)
	s.mu.Lock()
	s.lastFailureMessage = msg
	s.mu.Unlock()
}

// SetExcludeFromFlexing toggles whether the review pass should skip
// this role entirely.
func (s *Status) SetExcludeFromFlexing(v bool) {
	s.mu.Lock()
	s.excludeFromFlexing = v
	s.mu.Unlock()
}

func (s *Status) ExcludeFromFlexing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.excludeFromFlexing
}

// Delta returns how many more containers should be requested (positive)
// or released (negative) to reach desired.
func (s *Status) Delta() int {
	desired := s.Desired.Load()
	actual := s.actual.Load()
	requested := s.requested.Load()
	releasing := s.releasing.Load()
	return int(desired - (actual + requested - releasing))
}

// Snapshot is a stable, point-in-time copy of every counter.
type Snapshot struct {
	Desired            int
	Requested          int
	Actual             int
	Releasing          int
	Started            int
	Failed             int
	StartFailed        int
	Completed          int
	LastFailureMessage string
	ExcludeFromFlexing bool
}

func (s *Status) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Desired:            int(s.Desired.Load()),
		Requested:          int(s.requested.Load()),
		Actual:             int(s.actual.Load()),
		Releasing:          int(s.releasing.Load()),
		Started:            int(s.started.Load()),
		Failed:             int(s.failed.Load()),
		StartFailed:        int(s.startFailed.Load()),
		Completed:          int(s.completed.Load()),
		LastFailureMessage: s.lastFailureMessage,
		ExcludeFromFlexing: s.excludeFromFlexing,
	}
}

func (s *Status) Failed() int {
	return int(s.failed.Load())
}
