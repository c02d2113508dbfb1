package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const jobKeyPrefix = "job:"

// setIfNewer stores the job hash only when it carries a newer version than
// the cached one. KEYS[1]=key, ARGV = version, data, ttl in ms.
var setIfNewer = goredis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'v')
if cur and tonumber(cur) >= tonumber(ARGV[1]) then
	return 0
end
redis.call('HSET', KEYS[1], 'v', ARGV[1], 'd', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// Client wraps the Redis connection used as the job cache.
type Client struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewClient connects to Redis with retry. Cached jobs expire after ttl.
func NewClient(ctx context.Context, addr, password string, ttl time.Duration, log *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr, Password: password})
	for i := 1; i <= 20; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			log.Info("connected to redis", zap.String("addr", addr))
			return &Client{rdb: rdb, ttl: ttl}, nil
		}
		log.Info("waiting for redis", zap.Int("attempt", i), zap.Error(err))
		select {
		case <-ctx.Done():
			_ = rdb.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	_ = rdb.Close()
	return nil, fmt.Errorf("redis: failed to connect after 20 attempts")
}

// CacheJob stores a serialized job unless a version at least as new is
// already cached.
func (c *Client) CacheJob(ctx context.Context, jobID string, version int64, data []byte) error {
	return setIfNewer.Run(ctx, c.rdb, []string{jobKeyPrefix + jobID}, version, data, c.ttl.Milliseconds()).Err()
}

// GetCachedJob returns the serialized job, or nil when it is not cached.
func (c *Client) GetCachedJob(ctx context.Context, jobID string) ([]byte, error) {
	data, err := c.rdb.HGet(ctx, jobKeyPrefix+jobID, "d").Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// InvalidateJob drops the cached copy of a job.
func (c *Client) InvalidateJob(ctx context.Context, jobID string) error {
	return c.rdb.Del(ctx, jobKeyPrefix+jobID).Err()
}

// Close tears down the Redis connection.
func (c *Client) Close() error { return c.rdb.Close() }
