package crawler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	defaultConcurrency = 5
	maxConcurrency     = 50
)

// Pool runs a batch of tasks with a fixed number of workers
type Pool struct {
	concurrency int
}

// NewPool creates a pool running at most concurrency tasks at once
func NewPool(concurrency int) *Pool {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if concurrency > maxConcurrency {
		concurrency = maxConcurrency // avoid opening a tab storm
	}
	return &Pool{concurrency: concurrency}
}

// Concurrency returns the worker budget
func (p *Pool) Concurrency() int {
	return p.concurrency
}

// RunBatch calls task once per item and returns when every call has finished.
// Results are in item order; each task writes only its own slot. A
// panicking task yields the zero T and is logged.
func RunBatch[T any](ctx context.Context, p *Pool, items []string, task func(ctx context.Context, item string) T) []T {
	results := make([]T, len(items))
	if len(items) == 0 {
		return results
	}

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, item := range items {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Str("item", item).
						Interface("panic", r).
						Msg("Task panicked")
					err = fmt.Errorf("task %q panicked: %v", item, r)
				}
			}()
			results[i] = task(ctx, item)
			return nil
		})
	}
	// Task failures are carried in the results; the group error only
	// reports panics, which are already logged.
	_ = g.Wait()
	return results
}
