// Package rmclient defines the AM's view of the cluster resource
// manager and node manager: external collaborators whose interfaces
// are named but whose wire protocols are out of scope. Local gives
// the driver something concrete to run against for tests and demos;
// a real cluster manager SDK binding is a documented extension point.
package rmclient

import (
	"context"

	"github.com/cuemby/steward/pkg/appstate"
	"github.com/cuemby/steward/pkg/rmops"
	"github.com/cuemby/steward/pkg/types"
)

// ResourceManagerClient is the AM's outbound connection to the
// cluster resource manager. Allocate and Release submit one operation
// each; Heartbeat is the periodic round-trip that both keeps the AM's
// registration alive and returns newly allocated containers plus
// completion reports, the way a real cluster resource manager's
// allocate call doubles as a heartbeat.
type ResourceManagerClient interface {
	Allocate(ctx context.Context, req rmops.ContainerRequest) error
	Release(ctx context.Context, rel rmops.ContainerRelease) error
	Heartbeat(ctx context.Context) (allocated []types.ContainerHandle, completed []appstate.CompletionStatus, err error)

	// ClusterMaxMemoryMB is the cluster-reported per-container memory
	// ceiling, used to resolve the "max" resource sentinel.
	ClusterMaxMemoryMB() int64

	Close() error
}

// NodeManagerCallbacks is the AM's inbound surface from each node
// manager hosting one of its containers. A driver implements this by
// forwarding straight to the corresponding appstate.AppState method;
// no transport sits between the callback and the engine.
type NodeManagerCallbacks interface {
	ContainerStarted(containerID string)
	ContainerStartFailed(containerID string, cause string)
}

// StartFailure pairs a container id with the node manager's reported
// cause, for collaborators that need to queue or record start
// failures rather than react to them inline.
type StartFailure struct {
	ContainerID string
	Cause       string
}
