package worker

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// minIdleTTL is the shortest time an idle key is kept
const minIdleTTL = time.Minute

// Limiter rate-limits independently per key (client address, provider name).
// A key idle for longer than its bucket takes to refill is forgotten, so
// the number of keys held stays bounded by recent traffic.
type Limiter struct {
	limiters     *gocache.Cache
	mu           sync.Mutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a keyed limiter. A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	idleTTL := refillTime(limit, burst)
	return &Limiter{
		limiters:     gocache.New(idleTTL, idleTTL),
		defaultRate:  limit,
		defaultBurst: burst,
	}
}

// refillTime is how long an empty bucket takes to fill up again. After
// that an idle limiter is indistinguishable from a new one.
func refillTime(limit rate.Limit, burst int) time.Duration {
	if limit == rate.Inf || limit <= 0 {
		return minIdleTTL
	}
	d := time.Duration(float64(burst) / float64(limit) * float64(time.Second))
	if d < minIdleTTL {
		return minIdleTTL
	}
	return d
}

// Wait blocks until key may proceed or ctx is done
func (l *Limiter) Wait(ctx context.Context, key string) error {
	return l.getLimiter(key).Wait(ctx)
}

// Allow reports whether key may proceed now
func (l *Limiter) Allow(key string) bool {
	return l.getLimiter(key).Allow()
}

func (l *Limiter) getLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	item, exists := l.limiters.Get(key)
	if exists {
		limiter := item.(*rate.Limiter)
		if l.expires(key) {
			// refresh the idle deadline on every use
			l.limiters.Set(key, limiter, gocache.DefaultExpiration)
		}
		return limiter
	}

	limiter := rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters.Set(key, limiter, gocache.DefaultExpiration)
	return limiter
}

// expires reports whether key is subject to idle eviction
func (l *Limiter) expires(key string) bool {
	_, expiration, _ := l.limiters.GetWithExpiration(key)
	return !expiration.IsZero()
}

// SetRate overrides the limit for one key. Overridden keys never expire.
func (l *Limiter) SetRate(key string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.limiters.Set(key, rate.NewLimiter(rate.Limit(requestsPerSecond), burst), gocache.NoExpiration)
}

// Len returns the number of keys currently held
func (l *Limiter) Len() int {
	l.limiters.DeleteExpired()
	return l.limiters.ItemCount()
}

// WaitWithDelay waits for clearance and then sleeps for additionalDelay
func (l *Limiter) WaitWithDelay(ctx context.Context, key string, additionalDelay time.Duration) error {
	if err := l.Wait(ctx, key); err != nil {
		return err
	}

	if additionalDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(additionalDelay):
		}
	}

	return nil
}
