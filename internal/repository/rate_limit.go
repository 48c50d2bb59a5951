package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"kitchen_sync/pkg/logger"
)

type RateLimitRepository interface {
	// Consume атомарно инкрементирует счётчик ключа и возвращает
	// новое значение вместе с оставшимся временем жизни окна.
	Consume(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	// Block ставит ключу расширенный TTL после исчерпания бюджета.
	Block(ctx context.Context, key string, blockDuration time.Duration) error
}

// Инкремент и установка TTL должны быть одной операцией, иначе два
// конкурентных вызова могут обойти лимит (check-then-increment).
var consumeScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`)

type rateLimitRepository struct {
	redis *redis.Client
	log   logger.Logger
}

func NewRateLimitRepository(redis *redis.Client, log logger.Logger) RateLimitRepository {
	return &rateLimitRepository{redis: redis, log: log}
}

func (r *rateLimitRepository) Consume(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	res, err := consumeScript.Run(ctx, r.redis, []string{key}, window.Milliseconds()).Slice()
	if err != nil {
		r.log.Error("Failed to consume rate limit point", "key", key, "error", err)
		return 0, 0, err
	}

	count, _ := res[0].(int64)
	ttlMs, _ := res[1].(int64)
	if ttlMs < 0 {
		ttlMs = window.Milliseconds()
	}

	return count, time.Duration(ttlMs) * time.Millisecond, nil
}

func (r *rateLimitRepository) Block(ctx context.Context, key string, blockDuration time.Duration) error {
	if err := r.redis.PExpire(ctx, key, blockDuration).Err(); err != nil {
		r.log.Error("Failed to set block period", "key", key, "error", err)
		return err
	}
	return nil
}
