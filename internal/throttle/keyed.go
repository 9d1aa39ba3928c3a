package throttle

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// entry holds a client's token bucket and its last access time for cleanup.
type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter is an in-memory throttle backed by golang.org/x/time/rate.
// Each unique key gets its own token bucket. A background goroutine
// periodically evicts entries that have not been accessed within 2x the
// cleanup interval.
type KeyedLimiter struct {
	rate            rate.Limit
	burst           int
	limit           int // requests per minute, for Decision.Limit
	cleanupInterval time.Duration

	mu      sync.Mutex
	entries map[string]*entry
	done    chan struct{}
	closed  bool
}

// NewKeyedLimiter creates a throttle with the given requests-per-minute rate,
// burst size, and cleanup interval. It starts a background goroutine for
// eviction.
func NewKeyedLimiter(requestsPerMinute int, burst int, cleanupInterval time.Duration) *KeyedLimiter {
	k := &KeyedLimiter{
		rate:            rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:           burst,
		limit:           requestsPerMinute,
		cleanupInterval: cleanupInterval,
		entries:         make(map[string]*entry),
		done:            make(chan struct{}),
	}
	go k.cleanup()
	return k
}

// Allow checks whether a request from the given key should be allowed.
func (k *KeyedLimiter) Allow(key string) (bool, Decision) {
	k.mu.Lock()
	e, exists := k.entries[key]
	if !exists {
		e = &entry{
			limiter: rate.NewLimiter(k.rate, k.burst),
		}
		k.entries[key] = e
	}
	e.lastSeen = time.Now()
	k.mu.Unlock()

	allowed := e.limiter.Allow()

	now := time.Now()
	tokens := e.limiter.TokensAt(now)
	remaining := int(math.Max(0, math.Floor(tokens)))

	// Reset time: how long until the bucket is full again.
	tokensNeeded := float64(k.burst) - tokens
	var resetAt time.Time
	if tokensNeeded > 0 {
		resetDuration := time.Duration(tokensNeeded / float64(k.rate) * float64(time.Second))
		resetAt = now.Add(resetDuration)
	} else {
		resetAt = now
	}

	d := Decision{
		Limit:     k.limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}

	if !allowed {
		// Time until the next token becomes available.
		reservation := e.limiter.Reserve()
		delay := reservation.Delay()
		reservation.Cancel()
		d.RetryAfter = delay
	}

	return allowed, d
}

// Close stops the background cleanup goroutine.
func (k *KeyedLimiter) Close() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.closed {
		k.closed = true
		close(k.done)
	}
}

// cleanup periodically evicts entries that have not been accessed within
// 2x the cleanup interval.
func (k *KeyedLimiter) cleanup() {
	ticker := time.NewTicker(k.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-k.done:
			return
		case <-ticker.C:
			k.evictStale()
		}
	}
}

// evictStale removes entries older than 2x the cleanup interval.
func (k *KeyedLimiter) evictStale() {
	cutoff := time.Now().Add(-2 * k.cleanupInterval)
	k.mu.Lock()
	defer k.mu.Unlock()
	for key, e := range k.entries {
		if e.lastSeen.Before(cutoff) {
			delete(k.entries, key)
		}
	}
}
