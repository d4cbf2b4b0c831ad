package devices

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedisRegistry(t *testing.T) (*RedisRegistry, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})

	return NewRedisRegistryFromClient(client), srv
}

func TestRedisRegistryRoundTrip(t *testing.T) {
	reg, srv := newTestRedisRegistry(t)
	ctx := context.Background()

	_, ok, err := reg.Token(ctx, "dr.sara")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, reg.Register(ctx, "dr.sara", "token-a"))
	require.NoError(t, reg.Register(ctx, "dr.sara", "token-b"))

	token, ok, err := reg.Token(ctx, "dr.sara")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "token-b", token)

	// Tokens are namespaced under a stable key prefix.
	require.True(t, srv.Exists("critalert:device:dr.sara"))

	require.NoError(t, reg.Unregister(ctx, "dr.sara"))
	_, ok, err = reg.Token(ctx, "dr.sara")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, reg.Unregister(ctx, "ghost"))
}

func TestRedisRegistryValidation(t *testing.T) {
	reg, _ := newTestRedisRegistry(t)
	ctx := context.Background()

	require.Error(t, reg.Register(ctx, "", "token"))
	require.Error(t, reg.Register(ctx, "dr.sara", ""))
}

func TestRedisRegistrySurfacesConnectionErrors(t *testing.T) {
	reg, srv := newTestRedisRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.Register(ctx, "dr.sara", "token-a"))
	srv.Close()

	_, _, err := reg.Token(ctx, "dr.sara")
	require.Error(t, err)
}

func TestNewRedisRegistryRequiresAddress(t *testing.T) {
	_, err := NewRedisRegistry(RedisConfig{})
	require.Error(t, err)
}
