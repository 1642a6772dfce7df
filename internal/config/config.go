// Package config loads harvest settings from defaults, an optional YAML
// file, the environment, and CLI flags, in that order.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	LogLevel string `yaml:"log_level"`
	JSONLog  bool   `yaml:"json_log"`
	Quiet    bool   `yaml:"quiet"`

	// Browser
	Headless   bool   `yaml:"headless"`
	UserAgent  string `yaml:"user_agent"`
	Proxy      string `yaml:"proxy"`
	ChromePath string `yaml:"chrome_path"`
	Locale     string `yaml:"locale"`
	// Proxies are rotated when the start page cannot be loaded.
	Proxies []string `yaml:"proxies"`
	// Headers are "Key: Value" lines sent with every browser request.
	Headers []string `yaml:"headers"`

	// Crawl
	MaxItems       int           `yaml:"max_items"`
	MaxPages       int           `yaml:"max_pages"`
	Concurrency    int           `yaml:"concurrency"`
	InitialTimeout time.Duration `yaml:"initial_timeout"`
	LinkTimeout    time.Duration `yaml:"link_timeout"`
	ContentWait    time.Duration `yaml:"content_wait"`
	ClickTimeout   time.Duration `yaml:"click_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	ScrollWait     time.Duration `yaml:"scroll_wait"`
	PageSettle     time.Duration `yaml:"page_settle"`
	SettleDelay    time.Duration `yaml:"settle_delay"`
	ChallengeDelay time.Duration `yaml:"challenge_delay"`
	ChallengeTries int           `yaml:"challenge_attempts"`
	Retries        int           `yaml:"retries"`
	RateLimit      float64       `yaml:"rate_limit"`
	RateBurst      int           `yaml:"rate_burst"`

	// Output
	Output     string `yaml:"output"`
	Format     string `yaml:"format"`
	NoProgress bool   `yaml:"no_progress"`

	// Sessions
	Session     string `yaml:"session"`
	SaveSession string `yaml:"save_session"`

	// Metrics
	MetricsFile string `yaml:"metrics_file"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LogLevel:       DefaultLogLevel,
		JSONLog:        DefaultJSONLog,
		Headless:       DefaultHeadless,
		Locale:         DefaultLocale,
		MaxItems:       DefaultMaxItems,
		MaxPages:       DefaultMaxPages,
		Concurrency:    DefaultConcurrency,
		InitialTimeout: DefaultInitialTimeout,
		LinkTimeout:    DefaultLinkTimeout,
		ContentWait:    DefaultContentWait,
		ClickTimeout:   DefaultClickTimeout,
		IdleTimeout:    DefaultIdleTimeout,
		ScrollWait:     DefaultScrollWait,
		PageSettle:     DefaultPageSettle,
		SettleDelay:    DefaultSettleDelay,
		ChallengeDelay: DefaultChallengeDelay,
		ChallengeTries: DefaultChallengeTries,
		Retries:        DefaultRetries,
		RateBurst:      DefaultRateBurst,
		Output:         DefaultOutput,
		Format:         DefaultFormat,
	}
}

// Load builds a Config by combining defaults, an optional config file, environment variables, and CLI flags.
// Caller should pass the executing *cobra.Command so both its own and inherited flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Default()

	if cmd != nil {
		if f := cmd.Flags().Lookup("config"); f != nil && f.Value.String() != "" {
			if err := cfg.LoadFile(f.Value.String()); err != nil {
				return nil, err
			}
		}
	}

	cfg.applyEnv()

	if cmd != nil {
		applyFlags(cfg, cmd.Flags())
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadFile overlays the YAML document at path onto c. Keys missing from
// the file keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// ProxyList returns every configured proxy; Proxy may hold a comma
// separated list.
func (c *Config) ProxyList() []string {
	var out []string
	for _, p := range strings.Split(c.Proxy, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return append(out, c.Proxies...)
}

func (c *Config) applyEnv() {
	if v := os.Getenv("HARVEST_USER_AGENT"); v != "" {
		c.UserAgent = v
	}
	if v := os.Getenv("HARVEST_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("HARVEST_CHROME_PATH"); v != "" {
		c.ChromePath = v
	}
}

// applyFlags copies flags the user actually set, so flag defaults never
// override values from the file or environment.
func applyFlags(c *Config, fs *pflag.FlagSet) {
	str := func(name string, dst *string) {
		if f := fs.Lookup(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
	integer := func(name string, dst *int) {
		if f := fs.Lookup(name); f != nil && f.Changed {
			if v, err := fs.GetInt(name); err == nil {
				*dst = v
			}
		}
	}
	duration := func(name string, dst *time.Duration) {
		if f := fs.Lookup(name); f != nil && f.Changed {
			if v, err := fs.GetDuration(name); err == nil {
				*dst = v
			}
		}
	}
	set := func(name string) bool {
		f := fs.Lookup(name)
		return f != nil && f.Changed && f.Value.String() == "true"
	}

	str("user-agent", &c.UserAgent)
	str("proxy", &c.Proxy)
	str("chrome-path", &c.ChromePath)
	if f := fs.Lookup("header"); f != nil && f.Changed {
		if v, err := fs.GetStringArray("header"); err == nil {
			c.Headers = append(c.Headers, v...)
		}
	}
	if set("json") {
		c.JSONLog = true
	}
	if set("verbose") {
		c.LogLevel = "debug"
	}
	if set("quiet") {
		c.LogLevel = "error"
		c.Quiet = true
	}

	integer("max-items", &c.MaxItems)
	integer("max-pages", &c.MaxPages)
	integer("concurrency", &c.Concurrency)
	integer("retries", &c.Retries)
	duration("initial-timeout", &c.InitialTimeout)
	duration("link-timeout", &c.LinkTimeout)
	if f := fs.Lookup("rate-limit"); f != nil && f.Changed {
		if v, err := fs.GetFloat64("rate-limit"); err == nil {
			c.RateLimit = v
		}
	}
	if set("headed") {
		c.Headless = false
	}
	if set("no-progress") {
		c.NoProgress = true
	}

	str("output", &c.Output)
	str("format", &c.Format)
	str("session", &c.Session)
	str("save-session", &c.SaveSession)
	str("metrics-file", &c.MetricsFile)
	str("metrics-addr", &c.MetricsAddr)
}
