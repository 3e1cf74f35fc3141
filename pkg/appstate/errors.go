package appstate

import "fmt"

// ConfigurationError is fatal at build time: duplicate role id, missing
// mandatory role option, unparsable integer, role id out of range.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return "configuration error: " + e.Message }

func configErrorf(format string, args ...interface{}) error {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

// InternalStateError is fatal to the current request but not to the
// engine: release of an unknown active container, double-release, a
// started container not in the starting map.
type InternalStateError struct {
	Message string
}

func (e *InternalStateError) Error() string { return "internal state error: " + e.Message }

func internalErrorf(format string, args ...interface{}) error {
	return &InternalStateError{Message: fmt.Sprintf(format, args...)}
}

// TriggerClusterTeardownError is raised by a review pass when a role's
// cumulative failure count exceeds the configured threshold. It
// carries enough detail for the driver's exit path to report role
// name, failure counts, and the last diagnostic message.
type TriggerClusterTeardownError struct {
	RoleName     string
	FailureCount int
	Threshold    int
	LastMessage  string
}

func (e *TriggerClusterTeardownError) Error() string {
	return fmt.Sprintf("role %q exceeded failure threshold (%d > %d): %s", e.RoleName, e.FailureCount, e.Threshold, e.LastMessage)
}
