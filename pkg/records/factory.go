// Package records is the Record Factory: the one place that builds
// container-request and container-handle values, abstracting away the
// concrete cluster-manager record shapes the rest of the engine never
// needs to know about.
package records

import (
	"github.com/cuemby/steward/pkg/priority"
	"github.com/cuemby/steward/pkg/rmops"
	"github.com/cuemby/steward/pkg/types"
)

// Factory builds resource-manager-facing records. The zero value is
// ready to use; it is injected into the engine at construction time so
// tests can swap it the way spec.md §9 requires for the clock.
type Factory struct{}

// NewContainerRequest builds a ContainerRequest for roleID/resource,
// optionally pinned to nodeHint. unique selects the exclusive-priority
// encoding for roles that must never share a priority bucket.
func (Factory) NewContainerRequest(roleName string, roleID int, resource types.ResourceRequirement, nodeHint *string, unique bool) (rmops.ContainerRequest, error) {
	var (
		p   int32
		err error
	)
	if unique {
		p, err = priority.EncodeUnique(roleID)
	} else {
		p, err = priority.Encode(roleID)
	}
	if err != nil {
		return rmops.ContainerRequest{}, err
	}
	return rmops.ContainerRequest{
		RoleName: roleName,
		Resource: resource,
		Priority: p,
		NodeHint: nodeHint,
	}, nil
}

// DecodeRoleID extracts the role id a container was allocated under.
func (Factory) DecodeRoleID(h types.ContainerHandle) int {
	return priority.Extract(h.Priority)
}

// ResolveResource substitutes the literal "max" memory sentinel for
// the cluster-reported maximum. cores never has a "max" sentinel in
// this model; only memory does, per spec.md §6.
func (Factory) ResolveResource(req types.ResourceRequirement, clusterMaxMemoryMB int64) types.ResourceRequirement {
	if req.MemoryMB == types.MaxResourceMemoryMB {
		req.MemoryMB = clusterMaxMemoryMB
	}
	return req
}
