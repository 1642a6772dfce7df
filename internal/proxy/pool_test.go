package proxy

import (
	"testing"
	"time"
)

func TestPool(t *testing.T) {
	pool := NewPool([]string{"p1", "p2", "", "p3", "p1"})
	if pool.Len() != 3 {
		t.Fatalf("Expected 3 proxies, got %d", pool.Len())
	}

	// Test rotation
	for _, want := range []string{"p1", "p2", "p3", "p1"} {
		if p := pool.Next(); p != want {
			t.Errorf("Expected %s, got %s", want, p)
		}
	}

	// Should skip p2
	pool.MarkFailed("p2")
	for _, want := range []string{"p3", "p1", "p3"} {
		if p := pool.Next(); p != want {
			t.Errorf("Expected %s (skipping p2), got %s", want, p)
		}
	}

	// Should include p2 again
	pool.MarkHealthy("p2")
	for _, want := range []string{"p1", "p2"} {
		if p := pool.Next(); p != want {
			t.Errorf("Expected %s, got %s", want, p)
		}
	}
}

func TestPool_AllFailed(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	pool := NewPool([]string{"p1", "p2"})
	pool.now = func() time.Time { return now }

	pool.MarkFailed("p2")
	now = now.Add(time.Minute)
	pool.MarkFailed("p1")

	if p := pool.Next(); p != "p2" {
		t.Errorf("Expected the longest failed proxy p2, got %s", p)
	}

	// the cooldown expires
	now = now.Add(DefaultCooldown)
	if p := pool.Next(); p != "p1" {
		t.Errorf("Expected p1 after cooldown, got %s", p)
	}
}

func TestPool_Empty(t *testing.T) {
	var nilPool *Pool
	if p := nilPool.Next(); p != "" {
		t.Errorf("Expected empty proxy from nil pool, got %s", p)
	}
	if p := NewPool(nil).Next(); p != "" {
		t.Errorf("Expected empty proxy, got %s", p)
	}
}
