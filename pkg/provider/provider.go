// Package provider defines the AM's view of a provider: the
// application-specific component that knows which roles exist and
// how to launch them. Only role discovery is in scope here; assembling
// a launch command from a role and its resolved resources is an
// explicit Non-goal, so the stub providers below return static role
// lists and nothing else.
package provider

import "github.com/cuemby/steward/pkg/types"

// Provider lists the roles an application ships out of the box.
// Additional roles may still appear dynamically in a ClusterSpec
// (spec.md §4.4 step 2); those never go through a Provider.
type Provider interface {
	ListRoles() ([]types.Role, error)
}

// Flume is a stub provider modeled on Apache Flume's agent/collector
// role split, named after one of spec.md §1's illustrative examples.
type Flume struct{}

func (Flume) ListRoles() ([]types.Role, error) {
	return []types.Role{
		{Name: "agent", ID: 1, PlacementPolicy: types.PlacementAntiAffinity},
		{Name: "collector", ID: 2, PlacementPolicy: types.PlacementDefault},
	}, nil
}

// Tomcat is a stub provider for a simple single-role web application,
// the other example spec.md §1 names.
type Tomcat struct{}

func (Tomcat) ListRoles() ([]types.Role, error) {
	return []types.Role{
		{Name: "webapp", ID: 1, PlacementPolicy: types.PlacementDefault},
	}, nil
}
