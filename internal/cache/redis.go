package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/leomatch/internal/config"
)

// LikeCountTTL is how long a cached received-likes count lives without access.
const LikeCountTTL = time.Hour

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

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// KeyForLikeCount generates Redis key for a user's received-likes count
func (c *RedisCache) KeyForLikeCount(userID uint64) string {
	return fmt.Sprintf("leomatch:likes:count:%d", userID)
}

// SetLikeCount stores the count and refreshes the TTL.
func (c *RedisCache) SetLikeCount(ctx context.Context, userID uint64, count int64) error {
	return c.Client.Set(ctx, c.KeyForLikeCount(userID), count, LikeCountTTL).Err()
}

// GetLikeCount returns the cached count. ok is false on a cache miss.
func (c *RedisCache) GetLikeCount(ctx context.Context, userID uint64) (count int64, ok bool, err error) {
	key := c.KeyForLikeCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil // garbage in cache → treat as miss
	}
	// refresh TTL since this user is active
	_ = c.Client.Expire(ctx, key, LikeCountTTL).Err()
	return n, true, nil
}

// incrIfCached bumps a counter only when it is already cached, so a miss is
// never turned into a wrong small number.
var incrIfCached = redis.NewScript(`
	if redis.call("exists", KEYS[1]) == 1 then
		local n = redis.call("incr", KEYS[1])
		redis.call("pexpire", KEYS[1], ARGV[1])
		return n
	end
	return -1
`)

// IncrLikeCount adds one to a cached count; uncached counts are left alone.
func (c *RedisCache) IncrLikeCount(ctx context.Context, userID uint64) error {
	return incrIfCached.Run(ctx, c.Client,
		[]string{c.KeyForLikeCount(userID)}, LikeCountTTL.Milliseconds()).Err()
}

// InvalidateLikeCount drops the cached count.
func (c *RedisCache) InvalidateLikeCount(ctx context.Context, userID uint64) error {
	return c.Client.Del(ctx, c.KeyForLikeCount(userID)).Err()
}
