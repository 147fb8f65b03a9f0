// Package rate implementa los rate limiters usados por el middleware HTTP.
// Los errores del backend se devuelven al caller; el middleware decide
// fail-open.
package rate

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	rdb "github.com/redis/go-redis/v9"
)

type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	WindowTTL   time.Duration
	CurrentHits int64
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// RedisLimiter es el mismo sliding window log que MemoryLimiter, guardado en
// un ZSET por clave (score = unix micros del hit). Los requests rechazados se
// retiran del set, así que tampoco cuentan como hits.
type RedisLimiter struct {
	Client *rdb.Client
	Prefix string
	Max    int64
	Window time.Duration

	now func() time.Time
}

func NewRedisLimiter(client *rdb.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{
		Client: client,
		Prefix: prefix,
		Max:    int64(max),
		Window: window,
		now:    time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := time.Now
	if l.now != nil {
		now = l.now
	}
	t := now()
	redisKey := l.Prefix + strings.ReplaceAll(key, " ", "_")
	member := uuid.NewString()

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", strconv.FormatInt(t.Add(-l.Window).UnixMicro(), 10))
	pipe.ZAdd(ctx, redisKey, rdb.Z{Score: float64(t.UnixMicro()), Member: member})
	card := pipe.ZCard(ctx, redisKey)
	oldest := pipe.ZRangeWithScores(ctx, redisKey, 0, 0)
	pipe.PExpire(ctx, redisKey, l.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate: redis: %w", err)
	}

	ttl := l.Window
	if z := oldest.Val(); len(z) == 1 {
		ttl = time.UnixMicro(int64(z[0].Score)).Add(l.Window).Sub(t)
	}

	hits := card.Val()
	if hits <= l.Max {
		return Result{
			Allowed:     true,
			Remaining:   l.Max - hits,
			WindowTTL:   ttl,
			CurrentHits: hits,
		}, nil
	}

	// rechazado: el hit no cuenta
	if err := l.Client.ZRem(ctx, redisKey, member).Err(); err != nil {
		return Result{}, fmt.Errorf("rate: redis: %w", err)
	}
	if ttl <= 0 {
		ttl = l.Window
	}
	return Result{
		Allowed:     false,
		Remaining:   0,
		RetryAfter:  ttl,
		WindowTTL:   ttl,
		CurrentHits: hits - 1,
	}, nil
}
