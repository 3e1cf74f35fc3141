package appstate

import "github.com/cuemby/steward/pkg/types"

// OnContainersAllocated processes one batch from the resource manager.
// Containers that would push a role past its desired count are
// surplus: they are marked for immediate release and never enter the
// active population. Everything else becomes an Assignment the driver
// must start.
func (a *AppState) OnContainersAllocated(allocated []types.ContainerHandle) ([]Assignment, []string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	roleIDOf := func(h types.ContainerHandle) int { return a.factory.DecodeRoleID(h) }
	ordered := a.history.PrepareAllocationList(allocated, roleIDOf)

	var assignments []Assignment
	var releases []string

	for _, container := range ordered {
		roleID := a.factory.DecodeRoleID(container)
		role, ok := a.roleByID[roleID]
		if !ok {
			a.logger.Warn().Int("role_id", roleID).Str("container_id", container.ID).
				Msg("allocated container decoded to an unknown role id, discarding")
			a.unknownCompletions.Add(1)
			continue
		}

		status := a.statuses[role.Name]
		status.DecRequested()
		status.IncActual()

		if status.Snapshot().Actual > status.Snapshot().Desired {
			status.DecActual()
			a.surplus[container.ID] = true
			a.surplusTotal.Add(1)
			releases = append(releases, container.ID)
			a.logger.Info().Str("role", role.Name).Str("container_id", container.ID).
				Msg("allocation exceeds desired count, marking surplus for release")
			continue
		}

		inst := &types.RoleInstance{
			ContainerID: container.ID,
			Container:   container,
			RoleName:    role.Name,
			RoleID:      role.ID,
			State:       types.StateRequested,
		}
		a.active[container.ID] = inst
		assignments = append(assignments, Assignment{Container: container, Role: *role})
	}

	return assignments, releases, nil
}

// ContainerStartSubmitted marks a tracked instance as submitted for
// start, stamping its create time and notifying role history.
func (a *AppState) ContainerStartSubmitted(containerID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	inst, ok := a.active[containerID]
	if !ok {
		return internalErrorf("container_start_submitted: %q is not an active instance", containerID)
	}
	inst.State = types.StateSubmitted
	inst.CreateTime = a.now()
	a.starting[containerID] = true
	a.history.ContainerStartSubmitted(inst.Container.Host, inst.RoleID)
	return nil
}

// OnNodeManagerContainerStarted promotes a submitted instance to LIVE.
func (a *AppState) OnNodeManagerContainerStarted(containerID string) (*types.RoleInstance, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.starting[containerID] {
		return nil, internalErrorf("node manager start callback for %q which is not in the starting set", containerID)
	}
	inst, ok := a.active[containerID]
	if !ok {
		return nil, internalErrorf("node manager start callback for %q which is not an active instance", containerID)
	}

	inst.State = types.StateLive
	inst.StartTime = a.now()
	delete(a.starting, containerID)
	a.liveNodes[containerID] = inst

	if st, ok := a.statuses[inst.RoleName]; ok {
		st.IncStarted()
	}
	a.history.ContainerStarted(inst.Container.Host, inst.RoleID)

	return inst, nil
}

// OnNodeManagerContainerStartFailed moves an instance that never came
// up to the failed set, recording a short-lived negative signal in
// role history (the node never proved it could host this role).
func (a *AppState) OnNodeManagerContainerStartFailed(containerID string, cause string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	inst, ok := a.active[containerID]
	if !ok {
		a.unknownCompletions.Add(1)
		a.logger.Warn().Str("container_id", containerID).Msg("start-failed callback for a container not in active")
		return nil
	}

	delete(a.starting, containerID)
	delete(a.active, containerID)
	inst.State = types.StateDestroyed
	inst.Diagnostics = cause
	a.failed[containerID] = inst

	if st, ok := a.statuses[inst.RoleName]; ok {
		st.NoteFailed(cause)
		st.IncStartFailed()
		st.DecActual()
	}
	a.history.FailedContainer(inst.Container.Host, inst.RoleID, true)

	return nil
}

// ContainerReleaseSubmitted marks an active instance as released,
// moving its role's releasing counter up. The review pass and
// ReleaseAllContainers share the same logic through
// submitReleaseLocked; surplus containers never pass through it.
func (a *AppState) ContainerReleaseSubmitted(containerID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.submitReleaseLocked(containerID)
}

func (a *AppState) submitReleaseLocked(containerID string) error {
	inst, ok := a.active[containerID]
	if !ok {
		return internalErrorf("container_release_submitted: %q is not an active instance", containerID)
	}
	if inst.Released {
		return internalErrorf("container_release_submitted: %q was already released", containerID)
	}
	inst.Released = true
	a.awaitingRelease[containerID] = true
	if st, ok := a.statuses[inst.RoleName]; ok {
		st.IncReleasing()
	}
	a.history.ContainerReleaseSubmitted(inst.Container.Host, inst.RoleID)
	return nil
}

// OnCompletedNode processes a termination report. Exactly one of the
// three outcomes applies: an expected release completing, a surplus
// container being discarded, or an unrequested crash. A container id
// matching none of the engine's tracked sets is an unknown completion,
// counted but non-fatal.
func (a *AppState) OnCompletedNode(cs CompletionStatus) (*CompletionResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	result := &CompletionResult{}
	matched := false

	switch {
	case a.awaitingRelease[cs.ContainerID]:
		matched = true
		delete(a.awaitingRelease, cs.ContainerID)
		if inst, ok := a.active[cs.ContainerID]; ok {
			delete(a.active, cs.ContainerID)
			inst.State = types.StateDestroyed
			inst.ExitCode = cs.ExitCode
			inst.Diagnostics = cs.Diagnostics
			if st, ok := a.statuses[inst.RoleName]; ok {
				st.DecReleasing()
				st.DecActual()
				st.IncCompleted()
			}
			a.history.ReleaseCompleted(inst.Container.Host, inst.RoleID)
			a.completed[cs.ContainerID] = inst
			result.Instance = inst
		}

	case a.surplus[cs.ContainerID]:
		matched = true
		result.Surplus = true
		delete(a.surplus, cs.ContainerID)
		// No history update: a surplus container's completion carries no
		// placement signal.

	default:
		if inst, ok := a.active[cs.ContainerID]; ok {
			matched = true
			delete(a.active, cs.ContainerID)
			a.globalFailed.Add(1)
			inst.State = types.StateDestroyed
			inst.ExitCode = cs.ExitCode
			inst.Diagnostics = cs.Diagnostics

			shortLived := inst.StartTime.IsZero() || a.now().Sub(inst.StartTime) < a.shortLifeThreshold
			if st, ok := a.statuses[inst.RoleName]; ok {
				st.NoteFailed(cs.Diagnostics)
				st.DecActual()
				if shortLived {
					st.IncStartFailed()
				}
			}
			a.failed[cs.ContainerID] = inst
			a.history.FailedContainer(inst.Container.Host, inst.RoleID, shortLived)

			result.Failed = true
			result.Instance = inst
		}
	}

	if !matched {
		a.unknownCompletions.Add(1)
		a.logger.Warn().Str("container_id", cs.ContainerID).
			Msg("completion report for a container not tracked in any engine map")
	}

	if inst, ok := a.liveNodes[cs.ContainerID]; ok {
		delete(a.liveNodes, cs.ContainerID)
		inst.State = types.StateDestroyed
		inst.ExitCode = cs.ExitCode
		if inst.Diagnostics == "" {
			inst.Diagnostics = cs.Diagnostics
		}
	}

	return result, nil
}
