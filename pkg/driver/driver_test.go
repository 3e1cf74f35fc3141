package driver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/steward/pkg/appstate"
	"github.com/cuemby/steward/pkg/history"
	"github.com/cuemby/steward/pkg/priority"
	"github.com/cuemby/steward/pkg/records"
	"github.com/cuemby/steward/pkg/rmclient"
	"github.com/cuemby/steward/pkg/types"
)

func newTestEngine(t *testing.T) *appstate.AppState {
	t.Helper()
	a, err := appstate.New(appstate.Config{
		Now:                time.Now,
		Factory:            records.Factory{},
		History:            history.New(nil),
		FailureThreshold:   2,
		ShortLifeThreshold: 30 * time.Second,
	})
	require.NoError(t, err)
	return a
}

func buildSpec(t *testing.T, engine *appstate.AppState) {
	t.Helper()
	spec := types.ClusterSpec{
		Name: "demo",
		Roles: map[string]types.RoleSpec{
			"worker": {Desired: 2, Resource: types.ResourceRequirement{MemoryMB: 512, VCores: 1}},
		},
	}
	roles := []types.Role{{Name: "worker", ID: 1}}
	require.NoError(t, engine.BuildInstance(spec, roles, nil))
}

func TestCycleSubmitsRequestsForDesiredRoles(t *testing.T) {
	engine := newTestEngine(t)
	buildSpec(t, engine)

	client := rmclient.NewLocal(4096)
	d := New(engine, client)

	require.NoError(t, d.Cycle(context.Background()))

	reqs := client.RecordedRequests()
	assert.Len(t, reqs, 2)
	for _, r := range reqs {
		assert.Equal(t, "worker", r.RoleName)
	}
}

func TestCycleProcessesAllocationAndSubmitsStart(t *testing.T) {
	engine := newTestEngine(t)
	buildSpec(t, engine)

	client := rmclient.NewLocal(4096)
	d := New(engine, client)

	require.NoError(t, d.Cycle(context.Background()))

	p, err := priority.Encode(1)
	require.NoError(t, err)
	handle := types.ContainerHandle{ID: "host1-c", NodeID: "host1", Host: "host1", Priority: p}
	client.DeliverAllocation([]types.ContainerHandle{handle})

	require.NoError(t, d.Cycle(context.Background()))

	client.DeliverStarted(handle.ID)

	desc := engine.RefreshClusterStatus()
	stats := desc.Roles["worker"]
	assert.Equal(t, 1, stats.Started)
}

func TestContainerStartFailedForwardsToEngine(t *testing.T) {
	engine := newTestEngine(t)
	buildSpec(t, engine)

	client := rmclient.NewLocal(4096)
	d := New(engine, client)

	require.NoError(t, d.Cycle(context.Background()))

	p, err := priority.Encode(1)
	require.NoError(t, err)
	handle := types.ContainerHandle{ID: "host1-c", NodeID: "host1", Host: "host1", Priority: p}
	client.DeliverAllocation([]types.ContainerHandle{handle})
	require.NoError(t, d.Cycle(context.Background()))

	d.ContainerStartFailed(handle.ID, "node manager rejected launch")

	ops, err := engine.ReviewRequestAndReleaseNodes()
	require.NoError(t, err)
	assert.NotEmpty(t, ops)
}

func TestStartStopIsIdempotent(t *testing.T) {
	engine := newTestEngine(t)
	buildSpec(t, engine)
	client := rmclient.NewLocal(4096)
	d := New(engine, client)
	d.SetReviewInterval(5 * time.Millisecond)

	d.Start()
	d.Start()
	time.Sleep(20 * time.Millisecond)
	d.Stop()
	d.Stop()

	assert.NotEmpty(t, client.RecordedRequests())
}

func TestShutdownReleasesActiveContainers(t *testing.T) {
	engine := newTestEngine(t)
	buildSpec(t, engine)
	client := rmclient.NewLocal(4096)
	d := New(engine, client)

	require.NoError(t, d.Cycle(context.Background()))

	p, err := priority.Encode(1)
	require.NoError(t, err)
	handle := types.ContainerHandle{ID: "host1-c", NodeID: "host1", Host: "host1", Priority: p}
	client.DeliverAllocation([]types.ContainerHandle{handle})
	require.NoError(t, d.Cycle(context.Background()))
	client.DeliverStarted(handle.ID)

	require.NoError(t, d.Shutdown(context.Background()))

	releases := client.RecordedReleases()
	assert.NotEmpty(t, releases)
}
