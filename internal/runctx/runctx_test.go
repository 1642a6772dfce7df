package runctx

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	ctx, run := New(context.Background(), "https://example.com")
	_, err := uuid.Parse(run.ID)
	require.NoError(t, err)
	assert.Same(t, run, From(ctx))
	assert.Equal(t, "https://example.com", From(ctx).TargetURL)
}

func TestFrom_Missing(t *testing.T) {
	assert.Equal(t, "unknown", From(context.Background()).ID)
}

func TestWrap(t *testing.T) {
	ctx, run := New(context.Background(), "")
	boom := errors.New("boom")
	err := Wrap(ctx, boom)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), run.ID)
	assert.NoError(t, Wrap(ctx, nil))
}
