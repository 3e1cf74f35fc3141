package appstate

import "github.com/cuemby/steward/pkg/types"

// Assignment pairs a freshly allocated container with the role it was
// decoded as belonging to.
type Assignment struct {
	Container types.ContainerHandle
	Role      types.Role
}

// CompletionStatus is what the cluster resource manager reports when a
// container terminates.
type CompletionStatus struct {
	ContainerID string
	Host        string
	ExitCode    int
	Diagnostics string
	LogURL      string
}

// CompletionResult classifies how OnCompletedNode handled a
// termination.
type CompletionResult struct {
	Surplus  bool
	Failed   bool
	Instance *types.RoleInstance
}
