package appstate

import "github.com/cuemby/steward/pkg/types"

// RefreshClusterStatus rebuilds and returns a ClusterDescription
// snapshot from the current engine state. The returned value is
// detached from the engine's internal maps; callers may read it
// without holding any lock.
func (a *AppState) RefreshClusterStatus() *types.ClusterDescription {
	a.mu.Lock()
	defer a.mu.Unlock()

	desc := &types.ClusterDescription{
		Name:           a.spec.Name,
		State:          types.ClusterLive,
		CreateTime:     a.createTime,
		RestartCount:   a.restartCount,
		Roles:          make(map[string]types.RoleStatistics, len(a.statuses)),
		RoleContainers: make(map[string][]string),
		NodeView:       make(map[string]map[string]types.ContainerHandle),
	}

	var totalDesired, totalActual int64
	var started, startFailed, completed int64

	for name, st := range a.statuses {
		if name == amSelfRoleName {
			continue
		}
		snap := st.Snapshot()
		desc.Roles[name] = types.RoleStatistics{
			Desired:            snap.Desired,
			Requested:          snap.Requested,
			Actual:             snap.Actual,
			Releasing:          snap.Releasing,
			Started:            snap.Started,
			Failed:             snap.Failed,
			StartFailed:        snap.StartFailed,
			Completed:          snap.Completed,
			LastFailureMessage: snap.LastFailureMessage,
		}
		totalDesired += int64(snap.Desired)
		totalActual += int64(snap.Actual)
		started += int64(snap.Started)
		startFailed += int64(snap.StartFailed)
		completed += int64(snap.Completed)
	}

	for id, inst := range a.liveNodes {
		desc.RoleContainers[inst.RoleName] = append(desc.RoleContainers[inst.RoleName], id)
		if desc.NodeView[inst.RoleName] == nil {
			desc.NodeView[inst.RoleName] = make(map[string]types.ContainerHandle)
		}
		desc.NodeView[inst.RoleName][id] = inst.Container
	}

	desc.Statistics = types.ClusterStatistics{
		Completed:          completed,
		Failed:             a.globalFailed.Load(),
		Live:               int64(len(a.liveNodes)),
		Started:            started,
		StartFailed:        startFailed,
		Surplus:            a.surplusTotal.Load(),
		UnknownCompletions: a.unknownCompletions.Load(),
	}

	if totalDesired == 0 {
		desc.ProgressPercent = 100
	} else {
		desc.ProgressPercent = int((totalActual * 100) / totalDesired)
	}

	return desc
}
