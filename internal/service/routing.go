package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RoutingRegistry tracks which hosts currently have at least one local
// subscriber for a chat, as a shared Redis set per chat with a TTL on the
// whole set. The TTL is a safety net: a host that crashes without
// deregistering disappears once it lapses.
type RoutingRegistry struct {
	rdb      *redis.Client
	hostname string
	ttl      time.Duration
	logger   *zap.SugaredLogger
}

func NewRoutingRegistry(rdb *redis.Client, hostname string, ttl time.Duration, logger *zap.SugaredLogger) *RoutingRegistry {
	return &RoutingRegistry{
		rdb:      rdb,
		hostname: hostname,
		ttl:      ttl,
		logger:   logger,
	}
}

func routingKey(chatID string) string {
	return "chat:" + chatID + ":hosts"
}

// Register adds this host to the chat's host set and restarts the TTL from
// the full window. The key may carry almost-expired residue left by a host
// that crashed without deregistering; a conditional expire would let that
// residue take the newcomer's membership down with it, so the expiry is set
// unconditionally. Every host writes the same ttl, so nothing a live
// refresher needs is ever shortened.
func (r *RoutingRegistry) Register(ctx context.Context, chatID string) error {
	pipe := r.rdb.Pipeline()
	pipe.SAdd(ctx, routingKey(chatID), r.hostname)
	pipe.Expire(ctx, routingKey(chatID), r.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Refresh re-asserts membership and extends the set's TTL. The SADD heals a
// key that expired out from under a live host: without it an EXPIRE on the
// missing key would silently succeed-as-no-op and the host would stay absent
// from routing for the rest of the connection. GT never shortens an expiry
// another host pushed further out; NX covers the recreated key, which has no
// TTL yet and which GT alone would leave persistent.
func (r *RoutingRegistry) Refresh(ctx context.Context, chatID string) error {
	pipe := r.rdb.Pipeline()
	pipe.SAdd(ctx, routingKey(chatID), r.hostname)
	pipe.ExpireGT(ctx, routingKey(chatID), r.ttl)
	pipe.ExpireNX(ctx, routingKey(chatID), r.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Deregister removes this host from the chat's host set. Removing an absent
// member is a no-op on the Redis side, so races with expiry are harmless.
func (r *RoutingRegistry) Deregister(ctx context.Context, chatID string) error {
	return r.rdb.SRem(ctx, routingKey(chatID), r.hostname).Err()
}

// Hosts returns a point-in-time read of the chat's host set. It may be stale
// by up to the TTL window, which only risks a missed live event.
func (r *RoutingRegistry) Hosts(ctx context.Context, chatID string) ([]string, error) {
	return r.rdb.SMembers(ctx, routingKey(chatID)).Result()
}
