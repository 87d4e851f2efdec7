package limiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ClientLimiter rate limits requests per client key
type ClientLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*limiterEntry

	limit rate.Limit
	burst int
	now   func() time.Time
}

type limiterEntry struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientLimiter creates a limiter allowing perSecond requests with the given burst per client
func NewClientLimiter(perSecond float64, burst int) *ClientLimiter {
	return &ClientLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow checks if a request from the given client should be allowed
func (cl *ClientLimiter) Allow(client string) bool {
	return cl.entry(client).allow(cl.now())
}

func (cl *ClientLimiter) entry(client string) *limiterEntry {
	cl.mu.RLock()
	entry, exists := cl.limiters[client]
	cl.mu.RUnlock()

	if exists {
		return entry
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if entry, exists = cl.limiters[client]; exists {
		return entry
	}

	entry = &limiterEntry{
		limiter: rate.NewLimiter(cl.limit, cl.burst),
	}
	cl.limiters[client] = entry

	return entry
}

func (e *limiterEntry) allow(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

func (e *limiterEntry) idleSince(now time.Time) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return now.Sub(e.lastSeen)
}

// Len returns the number of tracked clients
func (cl *ClientLimiter) Len() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.limiters)
}

// GarbageCollect removes limiters that haven't been used recently
func (cl *ClientLimiter) GarbageCollect(maxAge time.Duration) int {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	now := cl.now()
	removed := 0

	for client, entry := range cl.limiters {
		if entry.idleSince(now) > maxAge {
			delete(cl.limiters, client)
			removed++
		}
	}

	return removed
}

// RunGC runs garbage collection periodically
func (cl *ClientLimiter) RunGC(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cl.GarbageCollect(maxAge)
		}
	}
}
