package metrics

import (
	"time"

	"github.com/cuemby/steward/pkg/types"
)

// Collector periodically samples a ClusterDescription snapshot into
// the package's gauges. The engine itself never touches metrics
// directly; sampling a snapshot keeps instrumentation off the
// mutex-guarded hot path.
type Collector struct {
	source func() *types.ClusterDescription
	stopCh chan struct{}
}

// NewCollector wraps source, typically
// appstate.AppState.RefreshClusterStatus.
func NewCollector(source func() *types.ClusterDescription) *Collector {
	return &Collector{
		source: source,
		stopCh: make(chan struct{}),
	}
}

// Start begins sampling every interval until Stop is called.
func (c *Collector) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				return
			}
		}
	}()
}

// Stop ends the sampling loop.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	desc := c.source()
	if desc == nil {
		return
	}

	for role, stats := range desc.Roles {
		RoleDesired.WithLabelValues(role).Set(float64(stats.Desired))
		RoleActual.WithLabelValues(role).Set(float64(stats.Actual))
		RoleRequested.WithLabelValues(role).Set(float64(stats.Requested))
		RoleReleasing.WithLabelValues(role).Set(float64(stats.Releasing))
	}
}
