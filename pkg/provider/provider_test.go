package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlumeListRolesHasNoDuplicateIDs(t *testing.T) {
	roles, err := Flume{}.ListRoles()
	require.NoError(t, err)
	seen := make(map[int]bool)
	for _, r := range roles {
		assert.False(t, seen[r.ID], "duplicate role id %d", r.ID)
		seen[r.ID] = true
	}
}

func TestTomcatListRoles(t *testing.T) {
	roles, err := Tomcat{}.ListRoles()
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "webapp", roles[0].Name)
}
