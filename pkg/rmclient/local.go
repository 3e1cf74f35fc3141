package rmclient

import (
	"context"
	"sync"

	"github.com/cuemby/steward/pkg/appstate"
	"github.com/cuemby/steward/pkg/rmops"
	"github.com/cuemby/steward/pkg/types"
)

// Local is an in-memory ResourceManagerClient for demos and
// integration tests that have no real cluster manager to dial.
// Requests and releases are recorded for inspection; test code queues
// allocation batches and completion reports via the Deliver* methods,
// which Heartbeat then drains. If a NodeManagerCallbacks target has
// been registered, DeliverStarted/DeliverStartFailed call it directly,
// matching the spec's "no transport" callback model.
type Local struct {
	maxMemoryMB int64

	mu          sync.Mutex
	requests    []rmops.ContainerRequest
	releases    []rmops.ContainerRelease
	allocations [][]types.ContainerHandle
	completions []appstate.CompletionStatus
	callbacks   NodeManagerCallbacks
}

// NewLocal creates a Local client reporting maxMemoryMB as the
// cluster's container memory ceiling.
func NewLocal(maxMemoryMB int64) *Local {
	return &Local{maxMemoryMB: maxMemoryMB}
}

// SetNodeManagerCallbacks registers the target DeliverStarted and
// DeliverStartFailed forward to.
func (l *Local) SetNodeManagerCallbacks(cb NodeManagerCallbacks) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.callbacks = cb
}

func (l *Local) Allocate(_ context.Context, req rmops.ContainerRequest) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests = append(l.requests, req)
	return nil
}

func (l *Local) Release(_ context.Context, rel rmops.ContainerRelease) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.releases = append(l.releases, rel)
	return nil
}

func (l *Local) Heartbeat(_ context.Context) ([]types.ContainerHandle, []appstate.CompletionStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var allocated []types.ContainerHandle
	for _, batch := range l.allocations {
		allocated = append(allocated, batch...)
	}
	l.allocations = nil

	completed := l.completions
	l.completions = nil

	return allocated, completed, nil
}

func (l *Local) ClusterMaxMemoryMB() int64 { return l.maxMemoryMB }

func (l *Local) Close() error { return nil }

// DeliverAllocation queues an allocation batch for the next Heartbeat.
func (l *Local) DeliverAllocation(batch []types.ContainerHandle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.allocations = append(l.allocations, batch)
}

// DeliverCompletion queues a termination report for the next Heartbeat.
func (l *Local) DeliverCompletion(cs appstate.CompletionStatus) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.completions = append(l.completions, cs)
}

// DeliverStarted invokes the registered callbacks target's
// ContainerStarted, if any.
func (l *Local) DeliverStarted(containerID string) {
	l.mu.Lock()
	cb := l.callbacks
	l.mu.Unlock()
	if cb != nil {
		cb.ContainerStarted(containerID)
	}
}

// DeliverStartFailed invokes the registered callbacks target's
// ContainerStartFailed, if any.
func (l *Local) DeliverStartFailed(containerID, cause string) {
	l.mu.Lock()
	cb := l.callbacks
	l.mu.Unlock()
	if cb != nil {
		cb.ContainerStartFailed(containerID, cause)
	}
}

// RecordedRequests returns every ContainerRequest submitted so far, in
// submission order.
func (l *Local) RecordedRequests() []rmops.ContainerRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]rmops.ContainerRequest, len(l.requests))
	copy(out, l.requests)
	return out
}

// RecordedReleases returns every ContainerRelease submitted so far, in
// submission order.
func (l *Local) RecordedReleases() []rmops.ContainerRelease {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]rmops.ContainerRelease, len(l.releases))
	copy(out, l.releases)
	return out
}
