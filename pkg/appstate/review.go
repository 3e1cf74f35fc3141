package appstate

import "github.com/cuemby/steward/pkg/rmops"

// ReviewRequestAndReleaseNodes is the periodic pass: for every
// flexible role, compare desired against actual+requested-releasing
// and emit enough ContainerRequest or ContainerRelease operations to
// close the gap. A role whose cumulative failures exceed the
// configured threshold aborts the whole pass with
// TriggerClusterTeardownError; the caller is expected to tear the
// cluster down rather than retry.
func (a *AppState) ReviewRequestAndReleaseNodes() ([]rmops.Operation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var ops []rmops.Operation

	for name, role := range a.roles {
		status := a.statuses[name]
		if status.ExcludeFromFlexing() {
			continue
		}

		if failed := status.Failed(); failed > a.failureThreshold {
			snap := status.Snapshot()
			return ops, &TriggerClusterTeardownError{
				RoleName:     name,
				FailureCount: failed,
				Threshold:    a.failureThreshold,
				LastMessage:  snap.LastFailureMessage,
			}
		}

		roleSpec := a.spec.Roles[name]
		delta := status.Delta()

		switch {
		case delta > 0:
			resource := a.factory.ResolveResource(roleSpec.Resource, a.clusterMaxMemoryMB)
			for i := 0; i < delta; i++ {
				nodeHint := a.history.RequestNode(role.ID)
				req, err := a.factory.NewContainerRequest(name, role.ID, resource, nodeHint, false)
				if err != nil {
					return ops, err
				}
				status.IncRequested()
				ops = append(ops, req)
			}

		case delta < 0:
			victims := a.history.FindNodesForRelease(role.ID, -delta)
			for _, v := range victims {
				containerID := a.findReleasableInstanceLocked(role.ID, v.Hostname)
				if containerID == "" {
					return ops, internalErrorf("review pass: no releasable active instance of role %q found on host %q", name, v.Hostname)
				}
				if err := a.submitReleaseLocked(containerID); err != nil {
					return ops, err
				}
				ops = append(ops, rmops.ContainerRelease{ContainerID: containerID})
			}
		}
	}

	return ops, nil
}

func (a *AppState) findReleasableInstanceLocked(roleID int, hostname string) string {
	for id, inst := range a.active {
		if inst.RoleID == roleID && inst.Container.Host == hostname && !inst.Released {
			return id
		}
	}
	return ""
}

// ReleaseAllContainers submits a release for every active,
// not-yet-released instance. Used at shutdown, when no further
// reconciliation should happen.
func (a *AppState) ReleaseAllContainers() ([]rmops.Operation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var ops []rmops.Operation
	for id, inst := range a.active {
		if inst.Released {
			continue
		}
		if err := a.submitReleaseLocked(id); err != nil {
			return ops, err
		}
		ops = append(ops, rmops.ContainerRelease{ContainerID: id})
	}
	return ops, nil
}
