package service

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const presenceKey = "online_users"

// Presence is a best-effort online tracker: a heartbeat marks the user
// online until now + window, and a periodic sweep drops expired entries.
//
// There is deliberately no offline call. A user may be logged in on several
// devices; knowing when the count reaches zero is far more complicated than
// letting the last heartbeat's window lapse.
type Presence struct {
	rdb    *redis.Client
	window time.Duration
	logger *zap.SugaredLogger
}

func NewPresence(rdb *redis.Client, window time.Duration, logger *zap.SugaredLogger) *Presence {
	return &Presence{
		rdb:    rdb,
		window: window,
		logger: logger,
	}
}

// Heartbeat raises the user's expiry to now + window. The GT flag means a
// late heartbeat with a smaller remaining window can never shorten an expiry
// already on record.
func (p *Presence) Heartbeat(ctx context.Context, userID string) error {
	expiry := time.Now().Add(p.window)
	return p.rdb.ZAddGT(ctx, presenceKey, redis.Z{
		Score:  float64(expiry.UnixMilli()),
		Member: userID,
	}).Err()
}

// IsOnline reports whether the user's recorded expiry is still in the future.
func (p *Presence) IsOnline(ctx context.Context, userID string) (bool, error) {
	score, err := p.rdb.ZScore(ctx, presenceKey, userID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return int64(score) > time.Now().UnixMilli(), nil
}

// IsOnlineBatch resolves each user independently; a failed lookup degrades
// to offline for that user instead of failing the whole batch.
func (p *Presence) IsOnlineBatch(ctx context.Context, userIDs []string) map[string]bool {
	online := make(map[string]bool, len(userIDs))
	for _, userID := range userIDs {
		ok, err := p.IsOnline(ctx, userID)
		if err != nil {
			p.logger.Warnw("presence lookup failed", "userId", userID, "error", err)
			ok = false
		}
		online[userID] = ok
	}
	return online
}

// RemoveInactive deletes every entry whose expiry has passed.
func (p *Presence) RemoveInactive(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	return p.rdb.ZRemRangeByScore(ctx, presenceKey, "0", now).Err()
}

// StartSweeper periodically removes expired entries until the context is
// canceled, bounding the sorted set's growth.
func (p *Presence) StartSweeper(ctx context.Context) {
	ticker := time.NewTicker(p.window * 6 / 5)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("presence sweeper stopped")
			return
		case <-ticker.C:
			if err := p.RemoveInactive(ctx); err != nil && ctx.Err() == nil {
				p.logger.Errorw("presence sweep failed", "error", err)
			}
		}
	}
}
