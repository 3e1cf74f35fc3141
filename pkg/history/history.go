// Package history implements the role history: placement memory that
// biases new container requests toward previously-used nodes and
// chooses release victims when a role must shrink.
package history

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cuemby/steward/pkg/types"
)

// NodeInstance is the per-(node,role) bookkeeping entry.
type NodeInstance struct {
	Hostname     string
	RoleID       int
	LastUsedTime time.Time
	ActiveCount  int
	Available    bool // once used by this role, not currently running it
}

func key(hostname string, roleID int) string {
	return fmt.Sprintf("%s\x00%d", hostname, roleID)
}

// RoleHistory is the in-memory placement table plus an optional
// durable Store. All methods are safe for concurrent use; the engine
// calls them while already holding its own lock, so internal locking
// here only protects against a Store's own background housekeeping (a
// status reader iterating history for diagnostics, for instance).
type RoleHistory struct {
	mu    sync.Mutex
	nodes map[string]*NodeInstance // key(hostname, roleID) -> entry
	store Store
	now   func() time.Time
}

// New creates a RoleHistory backed by store. A nil store keeps the
// table purely in memory (useful for tests).
func New(store Store) *RoleHistory {
	return &RoleHistory{
		nodes: make(map[string]*NodeInstance),
		store: store,
		now:   time.Now,
	}
}

// SetClock overrides the clock used to stamp LastUsedTime. The engine
// calls this with its own injected clock so a test driving a fake
// clock sees consistent timestamps across both appstate and history.
func (h *RoleHistory) SetClock(now func() time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.now = now
}

// Load reloads persisted entries from the durable store, if any. Safe
// to call once at startup; idempotent if called again (it only
// repopulates the in-memory table, it never mutates the file).
func (h *RoleHistory) Load() error {
	if h.store == nil {
		return nil
	}
	entries, err := h.store.Load()
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range entries {
		cp := e
		h.nodes[key(e.Hostname, e.RoleID)] = &cp
	}
	return nil
}

func (h *RoleHistory) persist(n *NodeInstance) {
	if h.store == nil {
		return
	}
	_ = h.store.SaveNode(*n)
}

// RegisterRole ensures a role is known to the history table even
// before any container has run, so a brand-new provider role appearing
// in the spec doesn't need special-casing elsewhere.
func (h *RoleHistory) RegisterRole(roleID int) {
	// No bookkeeping needed until a node is actually used; this exists
	// as an explicit hook per spec.md's event table ("new provider role
	// appears" -> "register role, empty history").
	_ = roleID
}

func (h *RoleHistory) entry(hostname string, roleID int) *NodeInstance {
	k := key(hostname, roleID)
	n, ok := h.nodes[k]
	if !ok {
		n = &NodeInstance{Hostname: hostname, RoleID: roleID}
		h.nodes[k] = n
	}
	return n
}

// markActive records that hostname is now running one more instance of
// roleID, clearing its "available" flag.
func (h *RoleHistory) markActive(hostname string, roleID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := h.entry(hostname, roleID)
	n.ActiveCount++
	n.Available = false
	n.LastUsedTime = h.now()
	h.persist(n)
}

// ContainerStartSubmitted and ContainerAssigned both mark a node active
// for a role; they are distinguished in spec.md only by which caller
// invokes them, not by effect.
func (h *RoleHistory) ContainerStartSubmitted(hostname string, roleID int) { h.markActive(hostname, roleID) }
func (h *RoleHistory) ContainerAssigned(hostname string, roleID int)       { h.markActive(hostname, roleID) }

// ContainerStarted is a no-op: the node was already marked active when
// the container was assigned/submitted.
func (h *RoleHistory) ContainerStarted(hostname string, roleID int) {}

// ContainerReleaseSubmitted leaves bookkeeping untouched; the node stays
// active until completion actually arrives.
func (h *RoleHistory) ContainerReleaseSubmitted(hostname string, roleID int) {}

// ReleaseCompleted decrements the active count for a node that finished
// an expected release; once it reaches zero the node becomes available
// again for future requests of the same role.
func (h *RoleHistory) ReleaseCompleted(hostname string, roleID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := h.entry(hostname, roleID)
	if n.ActiveCount > 0 {
		n.ActiveCount--
	}
	if n.ActiveCount == 0 {
		n.Available = true
	}
	h.persist(n)
}

// FailedContainer records a crash. Short-lived failures blacklist the
// node for the role (Available stays false); long-lived failures free
// the node up again.
func (h *RoleHistory) FailedContainer(hostname string, roleID int, shortLived bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := h.entry(hostname, roleID)
	if n.ActiveCount > 0 {
		n.ActiveCount--
	}
	if shortLived {
		n.Available = false
	} else if n.ActiveCount == 0 {
		n.Available = true
	}
	h.persist(n)
}

// SurplusDiscarded has no effect on placement memory: the container
// never should have counted against the role's footprint.
func (h *RoleHistory) SurplusDiscarded(hostname string, roleID int) {}

// RequestNode produces a node hint for a new container request: the
// most-recently-used available node for roleID, tie-broken by
// ascending hostname (Open Question i), or nil if none is available.
func (h *RoleHistory) RequestNode(roleID int) *string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var candidates []*NodeInstance
	for _, n := range h.nodes {
		if n.RoleID == roleID && n.Available {
			candidates = append(candidates, n)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].LastUsedTime.Equal(candidates[j].LastUsedTime) {
			return candidates[i].LastUsedTime.After(candidates[j].LastUsedTime)
		}
		return candidates[i].Hostname < candidates[j].Hostname
	})
	host := candidates[0].Hostname
	return &host
}

// FindNodesForRelease chooses up to n hosts whose running instances of
// roleID should be torn down: nodes with multiple active instances
// first, then most-recently-assigned, ties broken by ascending
// hostname (Open Question i). A node with zero active instances of the
// role is never returned.
func (h *RoleHistory) FindNodesForRelease(roleID int, n int) []NodeInstance {
	h.mu.Lock()
	defer h.mu.Unlock()

	var candidates []*NodeInstance
	for _, node := range h.nodes {
		if node.RoleID == roleID && node.ActiveCount > 0 {
			candidates = append(candidates, node)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.ActiveCount != b.ActiveCount {
			return a.ActiveCount > b.ActiveCount
		}
		if !a.LastUsedTime.Equal(b.LastUsedTime) {
			return a.LastUsedTime.After(b.LastUsedTime)
		}
		return a.Hostname < b.Hostname
	})

	if n > len(candidates) {
		n = len(candidates)
	}
	out := make([]NodeInstance, n)
	for i := 0; i < n; i++ {
		out[i] = *candidates[i]
	}
	return out
}

// PrepareAllocationList reorders containers so that those on nodes
// already available (a preferred node for the container's role, per
// RequestNode's notion of "available") are processed first. The order
// is stable and deterministic given the current history snapshot.
func (h *RoleHistory) PrepareAllocationList(containers []types.ContainerHandle, roleIDOf func(types.ContainerHandle) int) []types.ContainerHandle {
	h.mu.Lock()
	preferred := make(map[string]bool, len(h.nodes))
	for k, n := range h.nodes {
		if n.Available {
			preferred[k] = true
		}
	}
	h.mu.Unlock()

	out := make([]types.ContainerHandle, len(containers))
	copy(out, containers)
	sort.SliceStable(out, func(i, j int) bool {
		pi := preferred[key(out[i].Host, roleIDOf(out[i]))]
		pj := preferred[key(out[j].Host, roleIDOf(out[j]))]
		return pi && !pj
	})
	return out
}
