// Package config loads a cluster specification from a YAML file: role
// names, desired counts, resource requirements, placement policy, and
// the global options that govern failure handling. It is the one
// place in the codebase that understands the on-disk document shape;
// everything downstream works with pkg/types.ClusterSpec.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cuemby/steward/pkg/appstate"
	"github.com/cuemby/steward/pkg/types"
	"gopkg.in/yaml.v3"
)

const (
	defaultYarnMemoryMB     = 512
	defaultYarnCores        = 1
	defaultFailureThreshold = 10
	defaultShortLifeSeconds = 60
)

// Document is the top-level YAML shape a user authors.
type Document struct {
	Name                      string             `yaml:"name"`
	ContainerFailureThreshold int                `yaml:"container_failure_threshold"`
	ContainerFailureShortLife int                `yaml:"container_failure_short_life"`
	Roles                     map[string]RoleDoc `yaml:"roles"`
}

// RoleDoc is one role's section of the document.
type RoleDoc struct {
	Desired             int               `yaml:"desired"`
	YarnMemory          string            `yaml:"yarn_memory"`
	YarnCores           int32             `yaml:"yarn_cores"`
	RolePriority        int               `yaml:"role_priority"`
	RolePlacementPolicy string            `yaml:"role_placement_policy"`
	JVMHeap             string            `yaml:"jvm_heap"`
	ExcludeFromFlexing  bool              `yaml:"exclude_from_flexing"`
	Options             map[string]string `yaml:"options"`
}

// Result is what Load returns: the spec itself plus the global options
// that aren't part of ClusterSpec (they configure the engine, not a
// role's desired state).
type Result struct {
	Spec               types.ClusterSpec
	FailureThreshold   int
	ShortLifeThreshold time.Duration
}

// Load reads and parses a cluster specification from path. Any read
// or unmarshaling failure, or an unparsable yarn_memory or
// role_placement_policy, surfaces as *appstate.ConfigurationError,
// matching the error taxonomy the engine itself uses for build-time
// failures. A missing role_priority is not detected here;
// AppState.BuildInstance reports it.
func Load(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, &appstate.ConfigurationError{Message: fmt.Sprintf("failed to read cluster spec %q: %v", path, err)}
	}
	return Parse(data)
}

// Parse parses an already-read cluster specification document.
func Parse(data []byte) (Result, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Result{}, &appstate.ConfigurationError{Message: fmt.Sprintf("failed to parse cluster spec: %v", err)}
	}

	spec := types.ClusterSpec{
		Name:  doc.Name,
		Roles: make(map[string]types.RoleSpec, len(doc.Roles)),
	}

	for name, rd := range doc.Roles {
		roleSpec, err := rd.toRoleSpec()
		if err != nil {
			return Result{}, &appstate.ConfigurationError{Message: fmt.Sprintf("role %q: %v", name, err)}
		}
		spec.Roles[name] = roleSpec
	}

	threshold := doc.ContainerFailureThreshold
	if threshold <= 0 {
		threshold = defaultFailureThreshold
	}
	shortLifeSeconds := doc.ContainerFailureShortLife
	if shortLifeSeconds <= 0 {
		shortLifeSeconds = defaultShortLifeSeconds
	}

	return Result{
		Spec:               spec,
		FailureThreshold:   threshold,
		ShortLifeThreshold: time.Duration(shortLifeSeconds) * time.Second,
	}, nil
}

func (rd RoleDoc) toRoleSpec() (types.RoleSpec, error) {
	memoryMB, err := parseMemory(rd.YarnMemory)
	if err != nil {
		return types.RoleSpec{}, err
	}

	cores := rd.YarnCores
	if cores <= 0 {
		cores = defaultYarnCores
	}

	policy, err := parsePlacementPolicy(rd.RolePlacementPolicy)
	if err != nil {
		return types.RoleSpec{}, err
	}

	return types.RoleSpec{
		Desired:         rd.Desired,
		Resource:        types.ResourceRequirement{MemoryMB: memoryMB, VCores: cores},
		PlacementPolicy: policy,
		Priority:        rd.RolePriority,
		JVMHeap:         rd.JVMHeap,
		Options:         rd.Options,
	}, nil
}

func parseMemory(raw string) (int64, error) {
	switch raw {
	case "":
		return defaultYarnMemoryMB, nil
	case "max":
		return types.MaxResourceMemoryMB, nil
	default:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("yarn_memory %q is neither \"max\" nor an integer: %w", raw, err)
		}
		return v, nil
	}
}

func parsePlacementPolicy(raw string) (types.PlacementPolicy, error) {
	switch raw {
	case "", "default":
		return types.PlacementDefault, nil
	case "strict":
		return types.PlacementStrict, nil
	case "anti-affinity":
		return types.PlacementAntiAffinity, nil
	default:
		return 0, fmt.Errorf("unknown role_placement_policy %q", raw)
	}
}
