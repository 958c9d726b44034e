package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRoutingRegisterAndDeregister(t *testing.T) {
	rdb := testRedis(t)
	ctx := context.Background()
	chatID := uuid.NewString()
	t.Cleanup(func() { rdb.Del(ctx, routingKey(chatID)) })

	logger := zap.NewNop().Sugar()
	a := NewRoutingRegistry(rdb, "host-a", time.Minute, logger)
	b := NewRoutingRegistry(rdb, "host-b", time.Minute, logger)

	require.NoError(t, a.Register(ctx, chatID))
	require.NoError(t, b.Register(ctx, chatID))

	hosts, err := a.Hosts(ctx, chatID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"host-a", "host-b"}, hosts)

	require.NoError(t, a.Deregister(ctx, chatID))
	hosts, err = a.Hosts(ctx, chatID)
	require.NoError(t, err)
	assert.Equal(t, []string{"host-b"}, hosts)

	// Deregistering an absent host changes nothing.
	require.NoError(t, a.Deregister(ctx, chatID))
	hosts, err = a.Hosts(ctx, chatID)
	require.NoError(t, err)
	assert.Equal(t, []string{"host-b"}, hosts)
}

func TestRoutingRegisterResetsStaleExpiry(t *testing.T) {
	rdb := testRedis(t)
	ctx := context.Background()
	chatID := uuid.NewString()
	t.Cleanup(func() { rdb.Del(ctx, routingKey(chatID)) })

	logger := zap.NewNop().Sugar()
	a := NewRoutingRegistry(rdb, "host-a", time.Minute, logger)
	b := NewRoutingRegistry(rdb, "host-b", time.Minute, logger)

	// Host A crashed without deregistering; its key is about to lapse.
	require.NoError(t, a.Register(ctx, chatID))
	require.NoError(t, rdb.Expire(ctx, routingKey(chatID), 2*time.Second).Err())

	// Host B joining must get the full window, not inherit the residue and
	// expire before its first refresh tick.
	require.NoError(t, b.Register(ctx, chatID))
	ttl, err := rdb.TTL(ctx, routingKey(chatID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)
}

func TestRoutingRefreshHealsExpiredKey(t *testing.T) {
	rdb := testRedis(t)
	ctx := context.Background()
	chatID := uuid.NewString()
	t.Cleanup(func() { rdb.Del(ctx, routingKey(chatID)) })

	r := NewRoutingRegistry(rdb, "host-a", time.Minute, zap.NewNop().Sugar())
	require.NoError(t, r.Register(ctx, chatID))

	// The whole set expired out from under a still-live host.
	require.NoError(t, rdb.Del(ctx, routingKey(chatID)).Err())

	require.NoError(t, r.Refresh(ctx, chatID))

	hosts, err := r.Hosts(ctx, chatID)
	require.NoError(t, err)
	assert.Equal(t, []string{"host-a"}, hosts, "refresh must restore membership")

	// The recreated key must carry a TTL, not live forever.
	ttl, err := rdb.TTL(ctx, routingKey(chatID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestRoutingRefreshExtendsExpiry(t *testing.T) {
	rdb := testRedis(t)
	ctx := context.Background()
	chatID := uuid.NewString()
	t.Cleanup(func() { rdb.Del(ctx, routingKey(chatID)) })

	logger := zap.NewNop().Sugar()
	r := NewRoutingRegistry(rdb, "host-a", time.Minute, logger)
	require.NoError(t, r.Register(ctx, chatID))

	longer := NewRoutingRegistry(rdb, "host-a", time.Hour, logger)
	require.NoError(t, longer.Refresh(ctx, chatID))

	ttl, err := rdb.TTL(ctx, routingKey(chatID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)

	// Refreshing with a shorter TTL leaves the longer one in place.
	require.NoError(t, r.Refresh(ctx, chatID))
	ttl, err = rdb.TTL(ctx, routingKey(chatID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)
}

func TestRoutingHostsEmptyChat(t *testing.T) {
	rdb := testRedis(t)

	r := NewRoutingRegistry(rdb, "host-a", time.Minute, zap.NewNop().Sugar())
	hosts, err := r.Hosts(context.Background(), uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, hosts)
}
