package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	root := &cobra.Command{Use: "harvest"}
	RegisterFlags(root)
	crawl := &cobra.Command{Use: "crawl", RunE: func(*cobra.Command, []string) error { return nil }}
	RegisterCrawlFlags(crawl)
	root.AddCommand(crawl)

	root.SetArgs(append([]string{"crawl"}, args...))
	cmd, err := root.ExecuteC()
	require.NoError(t, err)
	return cmd
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newCommand(t))
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxItems, cfg.MaxItems)
	assert.Equal(t, DefaultConcurrency, cfg.Concurrency)
	assert.Equal(t, 60*time.Second, cfg.InitialTimeout)
	assert.Equal(t, 45*time.Second, cfg.LinkTimeout)
	assert.Equal(t, 15*time.Second, cfg.ContentWait)
	assert.Equal(t, "csv", cfg.Format)
	assert.Equal(t, "output", cfg.Output)
	assert.True(t, cfg.Headless)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Flags(t *testing.T) {
	cmd := newCommand(t, "-n", "25", "--headed", "-f", "json", "-o", "out/news",
		"--concurrency", "8", "--link-timeout", "30s", "--rate-limit", "2", "-v", "--json")
	cfg, err := Load(cmd)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.MaxItems)
	assert.False(t, cfg.Headless)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "out/news", cfg.Output)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.LinkTimeout)
	assert.Equal(t, 2.0, cfg.RateLimit)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.JSONLog)
}

func TestLoad_FileThenEnvThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harvest.yaml")
	doc := "max_items: 40\nconcurrency: 3\nlink_timeout: 20s\nproxy: http://file:1\nformat: xml\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	t.Setenv("HARVEST_PROXY", "http://env:2")

	cfg, err := Load(newCommand(t, "--config", path, "--concurrency", "7"))
	require.NoError(t, err)

	assert.Equal(t, 40, cfg.MaxItems)
	assert.Equal(t, 7, cfg.Concurrency)
	assert.Equal(t, 20*time.Second, cfg.LinkTimeout)
	assert.Equal(t, "http://env:2", cfg.Proxy)
	assert.Equal(t, "xml", cfg.Format)
	// untouched keys keep their defaults
	assert.Equal(t, DefaultInitialTimeout, cfg.InitialTimeout)
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_items: [oops"), 0o644))

	_, err := Load(newCommand(t, "--config", path))
	assert.Error(t, err)

	_, err = Load(newCommand(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero items", func(c *Config) { c.MaxItems = 0 }},
		{"too many workers", func(c *Config) { c.Concurrency = MaxConcurrency + 1 }},
		{"negative pages", func(c *Config) { c.MaxPages = -1 }},
		{"zero link timeout", func(c *Config) { c.LinkTimeout = 0 }},
		{"zero retries", func(c *Config) { c.Retries = 0 }},
		{"rate without burst", func(c *Config) { c.RateLimit = 1; c.RateBurst = 0 }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"empty output", func(c *Config) { c.Output = " " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, validate(cfg))
		})
	}
	assert.NoError(t, validate(Default()))
}

func TestLoad_HeadersAndProxies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harvest.yaml")
	doc := "headers:\n  - \"Accept-Language: de-DE\"\nproxies:\n  - http://c:3\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(newCommand(t, "--config", path, "-H", "X-Token: abc", "--proxy", "http://a:1, http://b:2"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Accept-Language: de-DE", "X-Token: abc"}, cfg.Headers)
	assert.Equal(t, []string{"http://a:1", "http://b:2", "http://c:3"}, cfg.ProxyList())

	_, err = Load(newCommand(t, "-H", "nonsense"))
	assert.Error(t, err)
}
