package statusapi

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/cuemby/steward/pkg/types"
)

func bufDialer(lis *bufconn.Listener) func(context.Context, string) (net.Conn, error) {
	return func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.Dial()
	}
}

func TestGetClusterDescriptionRoundTrip(t *testing.T) {
	lis := bufconn.Listen(1024 * 1024)
	t.Cleanup(func() { _ = lis.Close() })

	want := &types.ClusterDescription{
		Name:            "demo",
		State:           types.ClusterLive,
		ProgressPercent: 42,
		Roles: map[string]types.RoleStatistics{
			"worker": {Desired: 2, Actual: 2},
		},
	}

	gs := grpc.NewServer()
	Register(gs, NewServer(func() *types.ClusterDescription { return want }))
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(bufDialer(lis)),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := NewClient(conn)
	got, err := client.GetClusterDescription(ctx)
	require.NoError(t, err)
	require.Equal(t, want.Name, got.Name)
	require.Equal(t, want.State, got.State)
	require.Equal(t, want.ProgressPercent, got.ProgressPercent)
	require.Equal(t, want.Roles["worker"], got.Roles["worker"])
}

func TestGetClusterDescriptionEmptySnapshot(t *testing.T) {
	lis := bufconn.Listen(1024 * 1024)
	t.Cleanup(func() { _ = lis.Close() })

	gs := grpc.NewServer()
	Register(gs, NewServer(func() *types.ClusterDescription { return &types.ClusterDescription{Name: "empty"} }))
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(bufDialer(lis)),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := NewClient(conn).GetClusterDescription(ctx)
	require.NoError(t, err)
	require.Equal(t, "empty", got.Name)
	require.Empty(t, got.Roles)
}
