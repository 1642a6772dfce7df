// Package ratelimit spaces out page loads per host.
package ratelimit

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter blocks until a load of the given URL may start.
type Limiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// HostLimiter keeps one token bucket per host so a crawl never hammers a
// single site, however many tasks run at once.
type HostLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	perHost  rate.Limit // Loads per second per host
	burst    int        // Burst capacity
}

// NewHostLimiter creates a limiter allowing perSecond loads per host. A
// non-positive rate returns nil, meaning no limit.
func NewHostLimiter(perSecond float64, burst int) *HostLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Limit(perSecond),
		burst:    burst,
	}
}

// Wait blocks until a load of rawURL is allowed. A nil limiter never blocks.
func (l *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	if l == nil {
		return nil
	}
	host := hostOf(rawURL)
	if host == "" {
		// Unparsable URL, let the navigation report it
		return nil
	}
	return l.limiter(host).Wait(ctx)
}

// Allow reports whether a load of rawURL could start right now, consuming
// a token if so.
func (l *HostLimiter) Allow(rawURL string) bool {
	if l == nil {
		return true
	}
	host := hostOf(rawURL)
	if host == "" {
		return true
	}
	return l.limiter(host).Allow()
}

// limiter returns or creates the bucket for host
func (l *HostLimiter) limiter(host string) *rate.Limiter {
	l.mu.RLock()
	lim, ok := l.limiters[host]
	l.mu.RUnlock()
	if ok {
		return lim
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if lim, ok := l.limiters[host]; ok {
		return lim
	}
	lim = rate.NewLimiter(l.perHost, l.burst)
	l.limiters[host] = lim
	return lim
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
