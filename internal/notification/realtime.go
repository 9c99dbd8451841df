package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Realtime pushes fresh notifications to connected clients and caches unread
// counters. Every method is best effort.
type Realtime interface {
	Publish(ctx context.Context, n *Notification)
	CachedUnread(ctx context.Context, userID uint) (int64, bool)
	CacheUnread(ctx context.Context, userID uint, count int64)
	InvalidateUnread(ctx context.Context, userID uint)
}

func userChannel(userID uint) string { return fmt.Sprintf("notifications:user:%d", userID) }

func unreadKey(userID uint) string { return fmt.Sprintf("notifications:unread:%d", userID) }

type RedisRealtime struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewRedisRealtime(client *redis.Client, log zerolog.Logger) *RedisRealtime {
	return &RedisRealtime{client: client, ttl: 5 * time.Minute, log: log}
}

func (r *RedisRealtime) Publish(ctx context.Context, n *Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		return
	}
	if err := r.client.Publish(ctx, userChannel(n.UserID), payload).Err(); err != nil {
		r.log.Warn().Err(err).Uint("user_id", n.UserID).Msg("realtime publish failed")
	}
}

func (r *RedisRealtime) CachedUnread(ctx context.Context, userID uint) (int64, bool) {
	n, err := r.client.Get(ctx, unreadKey(userID)).Int64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn().Err(err).Uint("user_id", userID).Msg("unread cache read failed")
		}
		return 0, false
	}
	return n, true
}

func (r *RedisRealtime) CacheUnread(ctx context.Context, userID uint, count int64) {
	if err := r.client.Set(ctx, unreadKey(userID), count, r.ttl).Err(); err != nil {
		r.log.Warn().Err(err).Uint("user_id", userID).Msg("unread cache write failed")
	}
}

func (r *RedisRealtime) InvalidateUnread(ctx context.Context, userID uint) {
	if err := r.client.Del(ctx, unreadKey(userID)).Err(); err != nil {
		r.log.Warn().Err(err).Uint("user_id", userID).Msg("unread cache invalidate failed")
	}
}
