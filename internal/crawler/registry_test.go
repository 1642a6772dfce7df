package crawler

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestRegistry_MarkVisitedOnce(t *testing.T) {
	r := NewRegistry()
	if !r.MarkVisited("https://example.com/a") {
		t.Fatal("first mark should win")
	}
	if r.MarkVisited("https://example.com/a") {
		t.Error("second mark should lose")
	}
	if !r.Visited("https://example.com/a") {
		t.Error("a should be visited")
	}
	if r.Visited("https://example.com/b") {
		t.Error("b should not be visited")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestRegistry_ConcurrentMarks(t *testing.T) {
	r := NewRegistry()
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.MarkVisited("https://example.com/same") {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if w := wins.Load(); w != 1 {
		t.Errorf("wins = %d, want 1", w)
	}
}
