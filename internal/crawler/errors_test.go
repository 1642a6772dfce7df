package crawler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrawlError(t *testing.T) {
	cause := errors.New("net::ERR_TIMED_OUT")
	err := NewCrawlError(ErrCodeInitialLoad, "failed to load start page", "https://example.com", cause)

	assert.Equal(t, "INITIAL_LOAD: failed to load start page (https://example.com): net::ERR_TIMED_OUT", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrInitialLoad)
	assert.NotErrorIs(t, err, ErrNavigation)
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", err), &CrawlError{Code: ErrCodeInitialLoad})
}
