package ratelimit

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/careerauth/redis"
)

// hitScript increments the counter and starts the window on first hit.
// A key left without a TTL (PTTL -1) gets one so it cannot stick forever.
var hitScript = goredis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

// RedisStore keeps counters in Redis as integer keys whose TTL is the window.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore creates a store over an open client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// Hit implements Store.
func (s *RedisStore) Hit(ctx context.Context, key string, window time.Duration) (Record, error) {
	res, err := s.client.Eval(ctx, hitScript, []string{s.key(key)}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Record{}, fmt.Errorf("ratelimit: redis hit: %w", err)
	}
	if len(res) != 2 {
		return Record{}, fmt.Errorf("ratelimit: redis hit: unexpected reply %v", res)
	}
	return Record{
		Count:   res[0],
		ResetAt: s.now().Add(time.Duration(res[1]) * time.Millisecond),
	}, nil
}

// Reset implements Store.
func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)); err != nil {
		return fmt.Errorf("ratelimit: redis reset: %w", err)
	}
	return nil
}

func (s *RedisStore) key(k string) string {
	return s.client.Key("rl:" + k)
}
