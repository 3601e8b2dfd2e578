package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spark-dating/spark-core/internal/config"
)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// --- like counters ---

// KeyForLikeCount generates the Redis key for a user's admirer count.
func (c *RedisCache) KeyForLikeCount(userID string) string {
	return fmt.Sprintf("likes:count:%s", userID)
}

func (c *RedisCache) SetLikeCount(ctx context.Context, userID string, count int64) error {
	// Always refresh TTL when updating
	return c.Client.Set(ctx, c.KeyForLikeCount(userID), count, time.Hour).Err()
}

func (c *RedisCache) GetLikeCount(ctx context.Context, userID string) (int64, bool, error) {
	key := c.KeyForLikeCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, time.Hour).Err()
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (c *RedisCache) IncrLikeCount(ctx context.Context, userID string) error {
	key := c.KeyForLikeCount(userID)
	if err := c.Client.Incr(ctx, key).Err(); err != nil {
		return err
	}
	return c.Client.Expire(ctx, key, time.Hour).Err()
}

// --- verification codes ---
//
// Codes live only in Redis with a TTL; there is no relational table for them
// and no in-memory copy, so a restart or expiry invalidates them uniformly.

func (c *RedisCache) keyForVerificationCode(email string) string {
	return fmt.Sprintf("verify:code:%s", email)
}

func (c *RedisCache) StoreVerificationCode(ctx context.Context, email, code string, ttl time.Duration) error {
	return c.Client.Set(ctx, c.keyForVerificationCode(email), code, ttl).Err()
}

func (c *RedisCache) GetVerificationCode(ctx context.Context, email string) (string, bool, error) {
	val, err := c.Client.Get(ctx, c.keyForVerificationCode(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	} else if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisCache) DeleteVerificationCode(ctx context.Context, email string) error {
	return c.Client.Del(ctx, c.keyForVerificationCode(email)).Err()
}

// --- chat realtime channel ---

// KeyForChatChannel generates the pub/sub channel name for a match.
func (c *RedisCache) KeyForChatChannel(matchID string) string {
	return fmt.Sprintf("chat:match:%s", matchID)
}

// PublishChatEvent sends a serialized message event to everyone subscribed
// to the match's channel. Events arrive in publish order.
func (c *RedisCache) PublishChatEvent(ctx context.Context, matchID string, payload []byte) error {
	return c.Client.Publish(ctx, c.KeyForChatChannel(matchID), payload).Err()
}

// SubscribeChat opens a subscription on the match's channel. The caller owns
// the returned PubSub and must Close it.
func (c *RedisCache) SubscribeChat(ctx context.Context, matchID string) *redis.PubSub {
	return c.Client.Subscribe(ctx, c.KeyForChatChannel(matchID))
}
