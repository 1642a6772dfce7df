package config

import (
	"fmt"
	"strings"

	"github.com/law-makers/harvest/internal/utils/headers"
)

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

func validate(c *Config) error {
	if c.MaxItems <= 0 {
		return fmt.Errorf("max items must be > 0")
	}
	if c.Concurrency <= 0 || c.Concurrency > MaxConcurrency {
		return fmt.Errorf("concurrency must be between 1 and %d", MaxConcurrency)
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max pages must be >= 0")
	}
	if c.InitialTimeout <= 0 || c.LinkTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0")
	}
	if c.ContentWait < 0 || c.PageSettle < 0 || c.SettleDelay < 0 || c.ChallengeDelay < 0 {
		return fmt.Errorf("waits must be >= 0")
	}
	if c.Retries <= 0 {
		return fmt.Errorf("retries must be > 0")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must be >= 0")
	}
	if c.RateLimit > 0 && c.RateBurst <= 0 {
		return fmt.Errorf("rate burst must be > 0 when a rate limit is set")
	}
	if !logLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if _, err := headers.Parse(c.Headers); err != nil {
		return err
	}
	if strings.TrimSpace(c.Output) == "" {
		return fmt.Errorf("output path must not be empty")
	}
	return nil
}
