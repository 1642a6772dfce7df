// Package proxy rotates the browser between configured proxies.
package proxy

import (
	"sync"
	"time"
)

// DefaultCooldown is how long a failed proxy is skipped
const DefaultCooldown = 5 * time.Minute

// Pool hands out proxies round-robin, skipping ones that failed recently
type Pool struct {
	proxies  []string
	index    int
	mu       sync.Mutex
	failed   map[string]time.Time
	cooldown time.Duration
	now      func() time.Time
}

// NewPool creates a pool over proxies. Empty and duplicate entries are dropped.
func NewPool(proxies []string) *Pool {
	seen := make(map[string]bool, len(proxies))
	list := make([]string, 0, len(proxies))
	for _, p := range proxies {
		if p != "" && !seen[p] {
			seen[p] = true
			list = append(list, p)
		}
	}
	return &Pool{
		proxies:  list,
		failed:   make(map[string]time.Time),
		cooldown: DefaultCooldown,
		now:      time.Now,
	}
}

// Len returns the number of proxies in the pool
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.proxies)
}

// Next returns the next healthy proxy. When every proxy is cooling down it
// returns the one that failed longest ago; an empty pool yields "".
func (p *Pool) Next() string {
	if p.Len() == 0 {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	oldest, oldestAt := "", time.Time{}
	for range p.proxies {
		proxy := p.proxies[p.index]
		p.index = (p.index + 1) % len(p.proxies)

		failedAt, ok := p.failed[proxy]
		if !ok {
			return proxy
		}
		if p.now().Sub(failedAt) >= p.cooldown {
			delete(p.failed, proxy)
			return proxy
		}
		if oldest == "" || failedAt.Before(oldestAt) {
			oldest, oldestAt = proxy, failedAt
		}
	}
	return oldest
}

// MarkFailed skips proxy for the cooldown period
func (p *Pool) MarkFailed(proxy string) {
	if p.Len() == 0 || proxy == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed[proxy] = p.now()
}

// MarkHealthy clears the failure status of a proxy
func (p *Pool) MarkHealthy(proxy string) {
	if p.Len() == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failed, proxy)
}
