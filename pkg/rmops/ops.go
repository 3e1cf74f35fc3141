// Package rmops defines the tagged values the engine emits to describe
// intended side effects against the cluster resource manager. The
// engine never performs I/O itself; a driver applies these.
package rmops

import "github.com/cuemby/steward/pkg/types"

// Operation is implemented by ContainerRequest and ContainerRelease.
// The unexported method seals the set so a driver's switch on
// concrete type can be exhaustive.
type Operation interface {
	op()
}

// ContainerRequest asks the resource manager for one container with
// the given resource shape and priority, optionally hinting at a
// specific node.
type ContainerRequest struct {
	RoleName string
	Resource types.ResourceRequirement
	Priority int32
	NodeHint *string
}

func (ContainerRequest) op() {}

// ContainerRelease asks the resource manager to tear down a specific,
// already-allocated container.
type ContainerRelease struct {
	ContainerID string
}

func (ContainerRelease) op() {}
