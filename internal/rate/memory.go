package rate

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter es un sliding window log en memoria. go-cache expira las
// claves inactivas; el mutex serializa el read-modify-write por clave.
// Los requests rechazados no cuentan como hits.
type MemoryLimiter struct {
	mu     sync.Mutex
	hits   *gocache.Cache
	max    int64
	window time.Duration
	now    func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &MemoryLimiter{
		hits:   gocache.New(window, 2*window),
		max:    int64(max),
		window: window,
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	var log []time.Time
	if v, ok := l.hits.Get(key); ok {
		log, _ = v.([]time.Time)
	}
	i := 0
	for i < len(log) && !log[i].After(cutoff) {
		i++
	}
	log = append([]time.Time(nil), log[i:]...)

	if int64(len(log)) >= l.max {
		retry := log[0].Add(l.window).Sub(now)
		l.hits.Set(key, log, retry)
		return Result{
			Allowed:     false,
			Remaining:   0,
			RetryAfter:  retry,
			WindowTTL:   retry,
			CurrentHits: int64(len(log)),
		}, nil
	}

	log = append(log, now)
	ttl := log[0].Add(l.window).Sub(now)
	l.hits.Set(key, log, l.window)
	return Result{
		Allowed:     true,
		Remaining:   l.max - int64(len(log)),
		WindowTTL:   ttl,
		CurrentHits: int64(len(log)),
	}, nil
}
