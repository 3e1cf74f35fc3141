// Package types defines the data model shared across the application
// master: roles, container handles, role instances, and the two
// mapping-valued documents (cluster spec and cluster description).
package types

import "time"

// Role is a named class of container with identical launch command and
// resource shape, the unit of flex. ID doubles as the container-request
// priority and must be unique and stable for the lifetime of the AM.
type Role struct {
	Name            string
	ID              int
	PlacementPolicy PlacementPolicy
}

// PlacementPolicy is an opaque hint carried on Role and RoleSpec.
// Neither the engine nor the role history reads its value; node hints
// come from role history alone.
type PlacementPolicy int

const (
	PlacementDefault PlacementPolicy = iota
	PlacementStrict
	PlacementAntiAffinity
)

// ResourceRequirement is the memory/cores shape requested for a role's
// containers. MemoryMB of MaxResourceMemoryMB means the literal "max"
// option was set and must be resolved against the cluster-reported
// maximum before use.
type ResourceRequirement struct {
	MemoryMB int64
	VCores   int32
}

const MaxResourceMemoryMB int64 = -1

// ContainerHandle is the opaque handle a cluster resource manager hands
// back for an allocation: a node, a host:port, and the priority it was
// requested under.
type ContainerHandle struct {
	ID       string
	NodeID   string
	Host     string
	Port     int32
	Priority int32
}

// RoleInstanceState is the per-container state machine position.
type RoleInstanceState string

const (
	StateRequested RoleInstanceState = "REQUESTED"
	StateSubmitted RoleInstanceState = "SUBMITTED"
	StateLive      RoleInstanceState = "LIVE"
	StateDestroyed RoleInstanceState = "DESTROYED"
)

// RoleInstance is the engine's per-container record.
type RoleInstance struct {
	ContainerID string
	Container   ContainerHandle
	RoleName    string
	RoleID      int
	State       RoleInstanceState

	CreateTime time.Time
	StartTime  time.Time

	Released    bool
	ExitCode    int
	Diagnostics string

	Command     []string
	Environment map[string]string
}

// ClusterLifecycleState tags the published description.
type ClusterLifecycleState string

const (
	ClusterCreated   ClusterLifecycleState = "CREATED"
	ClusterLive      ClusterLifecycleState = "LIVE"
	ClusterDestroyed ClusterLifecycleState = "DESTROYED"
)

// RoleSpec is the user-authored per-role section of a ClusterSpec.
type RoleSpec struct {
	Desired         int
	Resource        ResourceRequirement
	PlacementPolicy PlacementPolicy
	Priority        int // 0 means "not set dynamically"; provider-offered roles ignore this
	JVMHeap         string
	Options         map[string]string
}

// ClusterSpec is the desired state authored by the user: role name to
// per-role desired count, resource requirements, and opaque options.
type ClusterSpec struct {
	Name  string
	Roles map[string]RoleSpec
}

// RoleStatistics is the read-only per-role counters copied into a
// ClusterDescription snapshot.
type RoleStatistics struct {
	Desired            int
	Requested          int
	Actual             int
	Releasing          int
	Started            int
	Failed             int
	StartFailed        int
	Completed          int
	LastFailureMessage string
}

// ClusterStatistics is the global, cross-role counters in a snapshot.
type ClusterStatistics struct {
	Completed          int64
	Failed             int64
	Live               int64
	Started            int64
	StartFailed        int64
	Surplus            int64
	UnknownCompletions int64
}

// ClusterDescription is the derived, read-only snapshot published to
// status readers. It is rebuilt wholesale on each RefreshClusterStatus
// call; callers never mutate it in place.
type ClusterDescription struct {
	Name            string
	State           ClusterLifecycleState
	CreateTime      time.Time
	RestartCount    int
	Roles           map[string]RoleStatistics
	RoleContainers  map[string][]string                   // role name -> container ids
	NodeView        map[string]map[string]ContainerHandle // role name -> container id -> handle
	Statistics      ClusterStatistics
	ProgressPercent int
}
