package registry

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/pairpad/collab-service/internal/config"
)

func setupRegistry(t *testing.T) (*RedisRegistry, *miniredis.Miniredis) {
	t.Helper()

	s := miniredis.RunT(t)
	reg, err := NewRedisRegistry(config.RedisConfig{
		Address:           s.Addr(),
		RegistryPrefix:    "collab:rooms",
		KeyTTL:            30 * time.Second,
		HeartbeatInterval: 10 * time.Millisecond,
	}, "127.0.0.1:3000")
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })

	return reg, s
}

func TestRegisterSetsKeyWithTTL(t *testing.T) {
	reg, s := setupRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.Register(ctx, "p1"))

	key := "collab:rooms:project:p1"
	val, err := s.Get(key)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:3000", val)
	require.Greater(t, s.TTL(key), time.Duration(0))
}

func TestDeregisterRemovesKey(t *testing.T) {
	reg, s := setupRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.Register(ctx, "p1"))
	require.NoError(t, reg.Deregister(ctx, "p1"))

	require.False(t, s.Exists("collab:rooms:project:p1"))
}

func TestHeartbeatRestoresExpiredKeys(t *testing.T) {
	reg, s := setupRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.Register(ctx, "p1"))
	require.NoError(t, reg.StartHeartbeat(ctx))
	defer reg.StopHeartbeat()

	// Simulate the key expiring out from under us; the heartbeat re-asserts it.
	s.Del("collab:rooms:project:p1")

	require.Eventually(t, func() bool {
		return s.Exists("collab:rooms:project:p1")
	}, time.Second, 10*time.Millisecond)
}

func TestDeregisteredKeysAreNotRefreshed(t *testing.T) {
	reg, s := setupRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.Register(ctx, "p1"))
	require.NoError(t, reg.Deregister(ctx, "p1"))
	require.NoError(t, reg.StartHeartbeat(ctx))
	defer reg.StopHeartbeat()

	time.Sleep(50 * time.Millisecond)
	require.False(t, s.Exists("collab:rooms:project:p1"))
}
