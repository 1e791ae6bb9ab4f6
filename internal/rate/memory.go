package rate

import (
	"context"
	"math"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	xrate "golang.org/x/time/rate"
)

// MemoryLimiter es un token bucket por clave para una sola réplica.
// Los buckets inactivos se descartan por TTL.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets *gocache.Cache
	limit   xrate.Limit
	burst   int
	now     func() time.Time
}

// NewMemoryLimiter permite burst hits y recarga max hits por window.
func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	idle := 2 * window
	if idle < 5*time.Minute {
		idle = 5 * time.Minute
	}
	return &MemoryLimiter{
		buckets: gocache.New(idle, time.Minute),
		limit:   xrate.Every(window / time.Duration(max)),
		burst:   max,
		now:     time.Now,
	}
}

func (l *MemoryLimiter) bucket(key string) *xrate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.buckets.Get(key); ok {
		lim := v.(*xrate.Limiter)
		// Renueva el TTL de inactividad
		l.buckets.SetDefault(key, lim)
		return lim
	}
	lim := xrate.NewLimiter(l.limit, l.burst)
	l.buckets.SetDefault(key, lim)
	return lim
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	lim := l.bucket(key)
	now := l.now()
	allowed := lim.AllowN(now, 1)
	tokens := lim.TokensAt(now)

	res := Result{
		Allowed:     allowed,
		Remaining:   int64(math.Max(0, math.Floor(tokens))),
		CurrentHits: int64(l.burst) - int64(math.Max(0, math.Floor(tokens))),
	}
	if !allowed {
		missing := 1 - tokens
		res.RetryAfter = time.Duration(missing / float64(l.limit) * float64(time.Second))
		if res.RetryAfter < time.Second {
			res.RetryAfter = time.Second
		}
		res.WindowTTL = res.RetryAfter
	}
	return res, nil
}
