package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHostLimiter_Disabled(t *testing.T) {
	l := NewHostLimiter(0, 0)
	assert.Nil(t, l)
	assert.NoError(t, l.Wait(context.Background(), "https://example.com/a"))
	assert.True(t, l.Allow("https://example.com/a"))
}

func TestHostLimiter_PerHostBuckets(t *testing.T) {
	l := NewHostLimiter(0.001, 1)
	require.NotNil(t, l)

	assert.True(t, l.Allow("https://a.example/1"))
	assert.False(t, l.Allow("https://a.example/2"))
	assert.True(t, l.Allow("https://b.example/1"))
}

func TestHostLimiter_WaitHonoursContext(t *testing.T) {
	l := NewHostLimiter(0.001, 1)
	require.True(t, l.Allow("https://a.example/1"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "https://a.example/2"))
}

func TestHostLimiter_BadURLPasses(t *testing.T) {
	l := NewHostLimiter(1, 1)
	assert.NoError(t, l.Wait(context.Background(), "://bad"))
}
