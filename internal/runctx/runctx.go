// Package runctx carries per-run identity through a crawl.
package runctx

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type key int

const runKey key = 0

// Run identifies one crawl
type Run struct {
	ID        string
	TargetURL string
	StartTime time.Time
}

// New starts a run for target and stores it in ctx.
func New(ctx context.Context, target string) (context.Context, *Run) {
	r := &Run{
		ID:        uuid.NewString(),
		TargetURL: target,
		StartTime: time.Now(),
	}
	return context.WithValue(ctx, runKey, r), r
}

// From returns the run stored in ctx, or a placeholder when there is none.
func From(ctx context.Context) *Run {
	if r, ok := ctx.Value(runKey).(*Run); ok {
		return r
	}
	return &Run{ID: "unknown", StartTime: time.Now()}
}

// Elapsed returns the time since the run started
func (r *Run) Elapsed() time.Duration {
	return time.Since(r.StartTime)
}

// Logger returns l tagged with the run's ID.
func (r *Run) Logger(l zerolog.Logger) zerolog.Logger {
	return l.With().Str("run_id", r.ID).Logger()
}

// Error wraps an error with the run it happened in
type Error struct {
	RunID string
	Err   error
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %v", e.RunID, e.Err)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap tags err with the run found in ctx
func Wrap(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return &Error{RunID: From(ctx).ID, Err: err}
}
