package crawler

import "sync"

// Registry records the URLs dispatched during one run. Each URL is handed
// out at most once.
type Registry struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{seen: make(map[string]struct{})}
}

// MarkVisited records url and reports whether this call was the first to
// do so.
func (r *Registry) MarkVisited(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[url]; ok {
		return false
	}
	r.seen[url] = struct{}{}
	return true
}

// Visited reports whether url has been recorded
func (r *Registry) Visited(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.seen[url]
	return ok
}

// Len returns how many URLs have been recorded
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}
