// Package driver ties the appstate engine to its external
// collaborators: it owns the periodic review loop, dispatches the
// operations the engine emits to a rmclient.ResourceManagerClient, and
// forwards node manager callbacks straight back into the engine. No
// collaborator's wire protocol lives here; this package only
// sequences calls across package boundaries, the way the teacher's
// reconciler sequences calls across its own manager boundary.
package driver

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/steward/pkg/appstate"
	"github.com/cuemby/steward/pkg/log"
	"github.com/cuemby/steward/pkg/metrics"
	"github.com/cuemby/steward/pkg/rmops"
	"github.com/cuemby/steward/pkg/rmclient"
)

// ReviewInterval is the default period between review passes, matched
// to the teacher reconciler's own ticker cadence.
const ReviewInterval = 10 * time.Second

// callbackRegistrar is implemented by resource manager clients that
// can deliver node manager callbacks directly, such as rmclient.Local.
// A real cluster manager SDK binding would implement it the same way.
type callbackRegistrar interface {
	SetNodeManagerCallbacks(rmclient.NodeManagerCallbacks)
}

// Driver runs the engine's review loop against a resource manager
// client and relays node manager callbacks back into the engine.
type Driver struct {
	engine *appstate.AppState
	client rmclient.ResourceManagerClient
	logger zerolog.Logger

	reviewInterval time.Duration

	mu      sync.Mutex
	stopCh  chan struct{}
	running bool
}

// New builds a Driver. If client also implements callbackRegistrar,
// the Driver registers itself to receive ContainerStarted and
// ContainerStartFailed callbacks.
func New(engine *appstate.AppState, client rmclient.ResourceManagerClient) *Driver {
	d := &Driver{
		engine:         engine,
		client:         client,
		logger:         log.WithComponent("driver"),
		reviewInterval: ReviewInterval,
	}
	if reg, ok := client.(callbackRegistrar); ok {
		reg.SetNodeManagerCallbacks(d)
	}
	return d
}

// SetReviewInterval overrides the default review cadence; tests use a
// short interval so they don't wait on the real clock.
func (d *Driver) SetReviewInterval(interval time.Duration) {
	d.reviewInterval = interval
}

// Start begins the review loop in its own goroutine.
func (d *Driver) Start() {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.stopCh = make(chan struct{})
	stopCh := d.stopCh
	d.mu.Unlock()

	go d.run(stopCh)
}

// Stop signals the review loop to end. It returns without waiting for
// the loop's goroutine to exit.
func (d *Driver) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.stopCh)
	d.mu.Unlock()
}

func (d *Driver) run(stopCh chan struct{}) {
	ticker := time.NewTicker(d.reviewInterval)
	defer ticker.Stop()

	d.logger.Info().Msg("driver started")

	for {
		select {
		case <-ticker.C:
			if err := d.Cycle(context.Background()); err != nil {
				d.logger.Error().Err(err).Msg("review cycle failed")
				return
			}
		case <-stopCh:
			d.logger.Info().Msg("driver stopped")
			return
		}
	}
}

// Cycle runs one full pass: drain the resource manager heartbeat,
// feed completions and allocations into the engine, dispatch any
// releases the engine surfaced from surplus containers, then run the
// review pass and dispatch whatever operations it emits. A
// *appstate.TriggerClusterTeardownError from the review pass is
// returned to the caller, which is expected to tear the cluster down.
func (d *Driver) Cycle(ctx context.Context) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ReviewCycleDuration)

	if err := d.drainHeartbeat(ctx); err != nil {
		return err
	}

	ops, err := d.engine.ReviewRequestAndReleaseNodes()
	if err != nil {
		return d.dispatchThenReturn(ctx, ops, err)
	}
	return d.dispatch(ctx, ops)
}

func (d *Driver) drainHeartbeat(ctx context.Context) error {
	hbTimer := metrics.NewTimer()
	allocated, completed, err := d.client.Heartbeat(ctx)
	hbTimer.ObserveDuration(metrics.HeartbeatDuration)
	if err != nil {
		return err
	}

	for _, cs := range completed {
		result, err := d.engine.OnCompletedNode(cs)
		if err != nil {
			log.WithContainerID(cs.ContainerID).Error().Err(err).Msg("failed to process completion")
			continue
		}
		switch {
		case result.Surplus:
			metrics.SurplusContainersTotal.Inc()
		case result.Failed:
			metrics.ContainersFailedTotal.Inc()
		}
	}

	if len(allocated) == 0 {
		return nil
	}

	assignments, releases, err := d.engine.OnContainersAllocated(allocated)
	if err != nil {
		return err
	}
	for _, id := range releases {
		if err := d.client.Release(ctx, rmops.ContainerRelease{ContainerID: id}); err != nil {
			log.WithContainerID(id).Error().Err(err).Msg("failed to release surplus container")
			continue
		}
	}
	for _, a := range assignments {
		if err := d.engine.ContainerStartSubmitted(a.Container.ID); err != nil {
			log.WithContainerID(a.Container.ID).Error().Err(err).Msg("failed to mark container start submitted")
		}
	}
	return nil
}

func (d *Driver) dispatch(ctx context.Context, ops []rmops.Operation) error {
	for _, op := range ops {
		switch v := op.(type) {
		case rmops.ContainerRequest:
			if err := d.client.Allocate(ctx, v); err != nil {
				log.WithRole(v.RoleName).Error().Err(err).Msg("failed to submit container request")
			}
		case rmops.ContainerRelease:
			if err := d.client.Release(ctx, v); err != nil {
				log.WithContainerID(v.ContainerID).Error().Err(err).Msg("failed to submit container release")
			}
		}
	}
	return nil
}

// dispatchThenReturn dispatches whatever operations a failed review
// pass still produced before the threshold tripped, then surfaces the
// original error.
func (d *Driver) dispatchThenReturn(ctx context.Context, ops []rmops.Operation, reviewErr error) error {
	if teardown, ok := reviewErr.(*appstate.TriggerClusterTeardownError); ok {
		metrics.TeardownTriggeredTotal.Inc()
		log.WithRole(teardown.RoleName).Warn().
			Int("failures", teardown.FailureCount).
			Int("threshold", teardown.Threshold).
			Str("last_message", teardown.LastMessage).
			Msg("failure threshold exceeded, triggering cluster teardown")
	}
	if err := d.dispatch(ctx, ops); err != nil {
		return err
	}
	return reviewErr
}

// ContainerStarted implements rmclient.NodeManagerCallbacks.
func (d *Driver) ContainerStarted(containerID string) {
	if _, err := d.engine.OnNodeManagerContainerStarted(containerID); err != nil {
		log.WithContainerID(containerID).Error().Err(err).Msg("failed to record container start")
		return
	}
	metrics.ContainersStartedTotal.Inc()
}

// ContainerStartFailed implements rmclient.NodeManagerCallbacks.
func (d *Driver) ContainerStartFailed(containerID string, cause string) {
	metrics.ContainersStartFailedTotal.Inc()
	if err := d.engine.OnNodeManagerContainerStartFailed(containerID, cause); err != nil {
		log.WithContainerID(containerID).Error().Err(err).Msg("failed to record container start failure")
	}
}

// Shutdown releases every active container, bypassing the normal
// review pass; intended for a clean process exit.
func (d *Driver) Shutdown(ctx context.Context) error {
	ops, err := d.engine.ReleaseAllContainers()
	if err != nil {
		return err
	}
	return d.dispatch(ctx, ops)
}
