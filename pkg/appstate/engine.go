// Package appstate is the AppState engine: the concurrent state
// machine that reconciles a role-based container population against a
// cluster resource manager. It owns every role's counters, every
// tracked container's lifecycle record, and the role history used to
// bias placement. Every entry point is CPU-bound and returns a list of
// resource-manager operations for a driver to apply; the engine itself
// never performs I/O.
package appstate

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cuemby/steward/pkg/history"
	"github.com/cuemby/steward/pkg/records"
	"github.com/cuemby/steward/pkg/rolestatus"
	"github.com/cuemby/steward/pkg/types"
	"github.com/rs/zerolog"
)

// amSelfRoleName is the reserved role name used for the application
// master's own container. It never appears in a ClusterSpec and is
// always excluded from flexing.
const amSelfRoleName = "__application_master__"

// defaultFailureThreshold and defaultShortLifeThreshold mirror the
// values spec.md calls out as sensible defaults; both are overridable
// through Config.
const (
	defaultFailureThreshold   = 10
	defaultShortLifeThreshold = 60 * time.Second
)

// Config carries everything BuildInstance needs that isn't part of the
// ClusterSpec itself.
type Config struct {
	// Now returns the current time. Defaults to time.Now; tests inject
	// a deterministic clock.
	Now func() time.Time

	// Factory builds resource-manager-facing records.
	Factory records.Factory

	// History is the role history to use. If nil, HistoryDir selects a
	// BoltDB-backed one, or a pure in-memory one if HistoryDir is also
	// empty.
	History    *history.RoleHistory
	HistoryDir string

	// FailureThreshold is the cumulative per-role failure count above
	// which a review pass raises TriggerClusterTeardownError.
	FailureThreshold int

	// ShortLifeThreshold is how long a container must have run before
	// its failure is considered long-lived rather than short-lived.
	ShortLifeThreshold time.Duration

	// ClusterMaxMemoryMB resolves the literal "max" memory sentinel.
	ClusterMaxMemoryMB int64

	Logger zerolog.Logger
}

func (c *Config) setDefaults() {
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = defaultFailureThreshold
	}
	if c.ShortLifeThreshold <= 0 {
		c.ShortLifeThreshold = defaultShortLifeThreshold
	}
}

// AppState is the engine. A single mutex guards every map; the hot
// per-role counters inside rolestatus.Status are atomics so handlers
// touching different roles never contend on them.
type AppState struct {
	mu sync.Mutex

	now                func() time.Time
	factory            records.Factory
	failureThreshold   int
	shortLifeThreshold time.Duration
	clusterMaxMemoryMB int64
	logger             zerolog.Logger

	history *history.RoleHistory

	roles    map[string]*types.Role    // by name
	roleByID map[int]*types.Role       // by encoded id
	statuses map[string]*rolestatus.Status

	active          map[string]*types.RoleInstance // container id -> tracked instance
	starting        map[string]bool
	awaitingRelease map[string]bool
	surplus         map[string]bool
	completed       map[string]*types.RoleInstance
	failed          map[string]*types.RoleInstance
	liveNodes       map[string]*types.RoleInstance // container id -> instance, node-view subset

	amSelfContainerID string

	spec         types.ClusterSpec
	createTime   time.Time
	restartCount int
	built        bool

	globalFailed       atomic.Int64
	surplusTotal       atomic.Int64
	unknownCompletions atomic.Int64
}

// New constructs an AppState ready for BuildInstance. It does not open
// any durable store unless Config.HistoryDir is set and
// Config.History is nil.
func New(cfg Config) (*AppState, error) {
	cfg.setDefaults()

	h := cfg.History
	if h == nil {
		var store history.Store
		if cfg.HistoryDir != "" {
			bs, err := history.NewBoltStore(cfg.HistoryDir)
			if err != nil {
				return nil, configErrorf("failed to open role history store: %v", err)
			}
			store = bs
		}
		h = history.New(store)
	}
	h.SetClock(cfg.Now)

	return &AppState{
		now:                cfg.Now,
		factory:            cfg.Factory,
		failureThreshold:   cfg.FailureThreshold,
		shortLifeThreshold: cfg.ShortLifeThreshold,
		clusterMaxMemoryMB: cfg.ClusterMaxMemoryMB,
		logger:             cfg.Logger,
		history:            h,
		roles:              make(map[string]*types.Role),
		roleByID:           make(map[int]*types.Role),
		statuses:           make(map[string]*rolestatus.Status),
		active:             make(map[string]*types.RoleInstance),
		starting:           make(map[string]bool),
		awaitingRelease:    make(map[string]bool),
		surplus:            make(map[string]bool),
		completed:          make(map[string]*types.RoleInstance),
		failed:             make(map[string]*types.RoleInstance),
		liveNodes:          make(map[string]*types.RoleInstance),
	}, nil
}

// BuildInstance registers every role the provider offers plus every
// dynamic role named only in spec, seeds desired counts from spec, and
// replays any containers already live from a prior AM attempt
// (restart). It may only be called once.
func (a *AppState) BuildInstance(spec types.ClusterSpec, providerRoles []types.Role, liveFromRestart []types.RoleInstance) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.built {
		return internalErrorf("BuildInstance called twice")
	}

	for _, r := range providerRoles {
		role := r
		if _, dup := a.roleByID[role.ID]; dup {
			return configErrorf("duplicate role id %d (role %q)", role.ID, role.Name)
		}
		a.roles[role.Name] = &role
		a.roleByID[role.ID] = &role
		a.history.RegisterRole(role.ID)
	}

	for name, rs := range spec.Roles {
		if _, known := a.roles[name]; known {
			continue
		}
		if rs.Priority <= 0 {
			return configErrorf("role %q has no provider definition and no role_priority option", name)
		}
		role := &types.Role{Name: name, ID: rs.Priority, PlacementPolicy: rs.PlacementPolicy}
		if _, dup := a.roleByID[role.ID]; dup {
			return configErrorf("duplicate role id %d (role %q)", role.ID, name)
		}
		a.roles[name] = role
		a.roleByID[role.ID] = role
		a.history.RegisterRole(role.ID)
	}

	for name := range a.roles {
		desired := 0
		if rs, ok := spec.Roles[name]; ok {
			desired = rs.Desired
		}
		a.statuses[name] = rolestatus.New(desired)
	}

	if err := a.history.Load(); err != nil {
		return configErrorf("failed to load role history: %v", err)
	}

	for _, inst := range liveFromRestart {
		copyInst := inst
		copyInst.State = types.StateLive
		a.active[copyInst.ContainerID] = &copyInst
		a.liveNodes[copyInst.ContainerID] = &copyInst
		if st, ok := a.statuses[copyInst.RoleName]; ok {
			st.IncActual()
			st.IncStarted()
		}
		a.history.ContainerAssigned(copyInst.Container.Host, copyInst.RoleID)
		a.history.ContainerStarted(copyInst.Container.Host, copyInst.RoleID)
	}
	if len(liveFromRestart) > 0 {
		a.restartCount++
	}

	a.spec = spec
	a.createTime = a.now()
	a.built = true

	a.logger.Info().
		Int("role_count", len(a.roles)).
		Int("replayed_containers", len(liveFromRestart)).
		Msg("application master instance built")

	return nil
}

// BuildAppMasterNode registers the AM's own container under the
// reserved self role so it shows up in the node view without ever
// being subject to flexing.
func (a *AppState) BuildAppMasterNode(containerID string, host string, port int32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	inst := &types.RoleInstance{
		ContainerID: containerID,
		Container:   types.ContainerHandle{ID: containerID, Host: host, Port: port},
		RoleName:    amSelfRoleName,
		RoleID:      0,
		State:       types.StateLive,
		CreateTime:  a.now(),
		StartTime:   a.now(),
	}
	a.amSelfContainerID = containerID
	a.liveNodes[containerID] = inst

	if _, ok := a.statuses[amSelfRoleName]; !ok {
		st := rolestatus.New(1)
		st.SetExcludeFromFlexing(true)
		st.IncActual()
		st.IncStarted()
		a.statuses[amSelfRoleName] = st
	}
}

// Flex updates a known role's desired instance count. It is the
// runtime counterpart to the desired count spec.md says is "set by
// spec": a client may ask for more or fewer instances of a role
// without rebuilding the whole instance, and the next review pass
// picks up the new delta.
func (a *AppState) Flex(roleName string, desired int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	st, ok := a.statuses[roleName]
	if !ok {
		return internalErrorf("flex: unknown role %q", roleName)
	}
	if desired < 0 {
		return internalErrorf("flex: negative desired count for role %q", roleName)
	}
	st.Desired.Store(int64(desired))
	if rs, ok := a.spec.Roles[roleName]; ok {
		rs.Desired = desired
		a.spec.Roles[roleName] = rs
	}
	return nil
}
