package rmclient

import (
	"context"
	"testing"

	"github.com/cuemby/steward/pkg/appstate"
	"github.com/cuemby/steward/pkg/rmops"
	"github.com/cuemby/steward/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCallbacks struct {
	started     []string
	startFailed []StartFailure
}

func (r *recordingCallbacks) ContainerStarted(id string) { r.started = append(r.started, id) }
func (r *recordingCallbacks) ContainerStartFailed(id, cause string) {
	r.startFailed = append(r.startFailed, StartFailure{ContainerID: id, Cause: cause})
}

func TestLocalHeartbeatDrainsQueuedWork(t *testing.T) {
	l := NewLocal(4096)
	ctx := context.Background()

	require.NoError(t, l.Allocate(ctx, rmops.ContainerRequest{RoleName: "A"}))
	require.NoError(t, l.Release(ctx, rmops.ContainerRelease{ContainerID: "c1"}))

	l.DeliverAllocation([]types.ContainerHandle{{ID: "c2"}})
	l.DeliverCompletion(appstate.CompletionStatus{ContainerID: "c3"})

	allocated, completed, err := l.Heartbeat(ctx)
	require.NoError(t, err)
	require.Len(t, allocated, 1)
	assert.Equal(t, "c2", allocated[0].ID)
	require.Len(t, completed, 1)
	assert.Equal(t, "c3", completed[0].ContainerID)

	allocated2, completed2, err := l.Heartbeat(ctx)
	require.NoError(t, err)
	assert.Empty(t, allocated2)
	assert.Empty(t, completed2)

	assert.Len(t, l.RecordedRequests(), 1)
	assert.Len(t, l.RecordedReleases(), 1)
}

func TestLocalForwardsNodeManagerCallbacks(t *testing.T) {
	l := NewLocal(4096)
	cb := &recordingCallbacks{}
	l.SetNodeManagerCallbacks(cb)

	l.DeliverStarted("c1")
	l.DeliverStartFailed("c2", "boom")

	assert.Equal(t, []string{"c1"}, cb.started)
	require.Len(t, cb.startFailed, 1)
	assert.Equal(t, "c2", cb.startFailed[0].ContainerID)
	assert.Equal(t, "boom", cb.startFailed[0].Cause)
}
