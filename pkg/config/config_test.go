package config

import (
	"testing"

	"github.com/cuemby/steward/pkg/appstate"
	"github.com/cuemby/steward/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `
name: demo
container_failure_threshold: 5
container_failure_short_life: 30
roles:
  master:
    desired: 1
    yarn_memory: "max"
    yarn_cores: 2
    role_placement_policy: strict
  worker:
    desired: 3
    yarn_memory: "1024"
    role_priority: 7
    jvm_heap: "768m"
    options:
      log_level: debug
`

func TestParse(t *testing.T) {
	result, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	assert.Equal(t, "demo", result.Spec.Name)
	assert.Equal(t, 5, result.FailureThreshold)
	assert.Equal(t, int64(30), int64(result.ShortLifeThreshold.Seconds()))

	master := result.Spec.Roles["master"]
	assert.Equal(t, 1, master.Desired)
	assert.Equal(t, types.MaxResourceMemoryMB, master.Resource.MemoryMB)
	assert.EqualValues(t, 2, master.Resource.VCores)
	assert.Equal(t, types.PlacementStrict, master.PlacementPolicy)

	worker := result.Spec.Roles["worker"]
	assert.EqualValues(t, 1024, worker.Resource.MemoryMB)
	assert.Equal(t, 7, worker.Priority)
	assert.Equal(t, "768m", worker.JVMHeap)
	assert.Equal(t, "debug", worker.Options["log_level"])
}

func TestParseDefaults(t *testing.T) {
	result, err := Parse([]byte("name: demo\nroles:\n  master:\n    desired: 1\n"))
	require.NoError(t, err)
	assert.Equal(t, defaultFailureThreshold, result.FailureThreshold)
	master := result.Spec.Roles["master"]
	assert.EqualValues(t, defaultYarnMemoryMB, master.Resource.MemoryMB)
	assert.EqualValues(t, defaultYarnCores, master.Resource.VCores)
}

func TestParseBadMemory(t *testing.T) {
	_, err := Parse([]byte("name: demo\nroles:\n  master:\n    desired: 1\n    yarn_memory: \"lots\"\n"))
	require.Error(t, err)
	var cfgErr *appstate.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestParseBadYAML(t *testing.T) {
	_, err := Parse([]byte("not: [valid"))
	require.Error(t, err)
	var cfgErr *appstate.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}
