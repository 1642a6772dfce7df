// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/law-makers/harvest/internal/auth"
	"github.com/law-makers/harvest/internal/browser"
	"github.com/law-makers/harvest/internal/config"
	"github.com/law-makers/harvest/internal/crawler"
	"github.com/law-makers/harvest/internal/metrics"
	"github.com/law-makers/harvest/internal/navigator"
	"github.com/law-makers/harvest/internal/paginate"
	"github.com/law-makers/harvest/internal/proxy"
	"github.com/law-makers/harvest/internal/ratelimit"
	"github.com/law-makers/harvest/internal/retry"
	"github.com/law-makers/harvest/internal/ui"
	"github.com/law-makers/harvest/internal/utils/headers"
	"github.com/law-makers/harvest/pkg/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LaunchFunc starts a browser session
type LaunchFunc func(ctx context.Context, opts browser.Options) (browser.Session, error)

// LaunchChrome starts a local Chrome process
func LaunchChrome(ctx context.Context, opts browser.Options) (browser.Session, error) {
	return browser.NewChromeSession(ctx, opts)
}

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once at startup and shared across all CLI commands.
// Use Close() to ensure proper resource cleanup on shutdown.
type Application struct {
	Config      *config.Config
	Logger      *zerolog.Logger
	Metrics     *metrics.Collector
	RateLimiter *ratelimit.HostLimiter
	Proxies     *proxy.Pool
	Headers     map[string]string
	// Launch starts the browser for each run; LaunchChrome by default.
	Launch LaunchFunc

	storeMu sync.Mutex
	store   *auth.Store

	startTime time.Time
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Creates the metrics collector
//   - Parses extra request headers and builds the proxy rotation
//   - Creates the per-host rate limiter when a rate is configured
//
// The browser is not started here; each crawl launches its own.
func New(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := newLogger(cfg, os.Stderr)
	log.Logger = logger

	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")

	hdrs, err := headers.Parse(cfg.Headers)
	if err != nil {
		return nil, err
	}

	proxies := proxy.NewPool(cfg.ProxyList())
	logger.Debug().Int("proxies", proxies.Len()).Int("headers", len(hdrs)).Msg("Browser settings loaded")

	rateLimiter := ratelimit.NewHostLimiter(cfg.RateLimit, cfg.RateBurst)
	logger.Debug().
		Float64("rps", cfg.RateLimit).
		Int("burst", cfg.RateBurst).
		Msg("Rate limiter initialized")

	return &Application{
		Config:      cfg,
		Logger:      &logger,
		Metrics:     metrics.NewCollector(),
		RateLimiter: rateLimiter,
		Proxies:     proxies,
		Headers:     hdrs,
		Launch:      LaunchChrome,
		startTime:   time.Now(),
	}, nil
}

// newLogger sets the global level and returns a logger writing to w.
// Info lines are only shown with --verbose, or with --json where they
// are meant for machines.
func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	level := zerolog.WarnLevel
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = zerolog.DebugLevel
	case "error":
		level = zerolog.ErrorLevel
	case "info":
		if cfg.JSONLog {
			level = zerolog.InfoLevel
		}
	}
	zerolog.SetGlobalLevel(level)

	if cfg.JSONLog {
		return zerolog.New(w).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: ui.NoColor, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
}

// BrowserOptions maps the configuration onto the browser launcher. Each
// call takes the next proxy from the rotation.
func (a *Application) BrowserOptions(headless bool) browser.Options {
	return browser.Options{
		Headless:   headless,
		UserAgent:  a.Config.UserAgent,
		Proxy:      a.Proxies.Next(),
		ChromePath: a.Config.ChromePath,
		Locale:     a.Config.Locale,
		Headers:    a.Headers,
	}
}

// CrawlerOptions maps the configuration onto the crawler
func (a *Application) CrawlerOptions() crawler.Options {
	c := a.Config
	opts := crawler.Options{
		Concurrency:    c.Concurrency,
		InitialTimeout: c.InitialTimeout,
		LinkTimeout:    c.LinkTimeout,
		PageSettle:     c.PageSettle,
		MaxPages:       c.MaxPages,
		Navigation: navigator.Options{
			ChallengeMarkers:  navigator.DefaultChallengeMarkers,
			ChallengeAttempts: c.ChallengeTries,
			ChallengeDelay:    c.ChallengeDelay,
			SettleDelay:       c.SettleDelay,
			ContentWait:       c.ContentWait,
			Retry:             retry.DefaultConfig(),
		},
		Pagination: paginate.Options{
			Selectors:    paginate.NextSelectors,
			ClickTimeout: c.ClickTimeout,
			IdleTimeout:  c.IdleTimeout,
			ScrollWait:   c.ScrollWait,
		},
		CaptureCookies: c.SaveSession != "",
	}
	opts.Navigation.Retry.MaxAttempts = c.Retries
	if a.RateLimiter != nil {
		opts.Limiter = a.RateLimiter
	}
	return opts
}

// Sessions returns the cookie session store, opening it on first use
func (a *Application) Sessions() (*auth.Store, error) {
	a.storeMu.Lock()
	defer a.storeMu.Unlock()
	if a.store != nil {
		return a.store, nil
	}
	st, err := auth.DefaultStore()
	if err != nil {
		return nil, err
	}
	a.store = st
	return st, nil
}

// SetSessions replaces the session store
func (a *Application) SetSessions(st *auth.Store) {
	a.storeMu.Lock()
	a.store = st
	a.storeMu.Unlock()
}

// Crawl runs one crawl end to end: it launches the browser, loads a saved
// session when configured, runs the crawler into sink and saves the run's
// cookies and metrics afterwards. extra observers receive every event
// after the log and metrics observers.
func (a *Application) Crawl(ctx context.Context, cc *models.CrawlConfig, sink crawler.Sink, extra ...crawler.Observer) (*crawler.Result, error) {
	if err := crawler.ValidateConfig(cc); err != nil {
		return nil, err
	}
	opts := a.CrawlerOptions()

	if name := a.Config.Session; name != "" {
		st, err := a.Sessions()
		if err != nil {
			return nil, err
		}
		sess, err := st.Load(name)
		if errors.Is(err, auth.ErrSessionExpired) {
			a.Logger.Warn().Str("session", name).Msg("Saved session has expired, loading it anyway")
		} else if err != nil {
			return nil, fmt.Errorf("failed to load session %q: %w", name, err)
		}
		opts.Navigation.Cookies = sess.CookieParams()
		a.Logger.Debug().Str("session", name).Int("cookies", len(sess.Cookies)).Msg("Session loaded")
	}

	if addr := a.Config.MetricsAddr; addr != "" {
		if err := a.Metrics.Serve(ctx, addr); err != nil {
			a.Logger.Warn().Err(err).Str("addr", addr).Msg("Could not start metrics server")
		}
	}

	observers := crawler.Observers{ui.LogObserver{Logger: *a.Logger}, a.Metrics}
	observers = append(observers, extra...)
	opts.Observer = observers

	// A start page that fails to load through one proxy is retried
	// through the next, once per proxy.
	attempts := max(1, a.Proxies.Len())
	var (
		res *crawler.Result
		err error
	)
	for attempt := 1; ; attempt++ {
		bopts := a.BrowserOptions(cc.Headless)
		res, err = a.crawlOnce(ctx, bopts, cc, opts, sink)
		if err == nil {
			a.Proxies.MarkHealthy(bopts.Proxy)
			break
		}
		if !errors.Is(err, crawler.ErrInitialLoad) || bopts.Proxy == "" || attempt >= attempts || ctx.Err() != nil {
			return res, err
		}
		a.Proxies.MarkFailed(bopts.Proxy)
		a.Logger.Warn().Err(err).Str("proxy", bopts.Proxy).Msg("Start page failed, switching proxy")
	}

	if name := a.Config.SaveSession; name != "" {
		a.saveSession(name, cc.TargetURL, res)
	}
	if path := a.Config.MetricsFile; path != "" {
		if err := a.Metrics.WriteFile(path); err != nil {
			a.Logger.Warn().Err(err).Str("path", path).Msg("Could not write metrics file")
		}
	}
	return res, nil
}

func (a *Application) crawlOnce(ctx context.Context, bopts browser.Options, cc *models.CrawlConfig, opts crawler.Options, sink crawler.Sink) (*crawler.Result, error) {
	session, err := a.Launch(ctx, bopts)
	if err != nil {
		return nil, crawler.NewCrawlError(crawler.ErrCodeInitialLoad, "failed to start browser", cc.TargetURL, err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			a.Logger.Debug().Err(err).Msg("Error closing browser")
		}
	}()
	return crawler.New(session, opts).RunTo(ctx, cc, sink)
}

func (a *Application) saveSession(name, url string, res *crawler.Result) {
	if len(res.Cookies) == 0 {
		a.Logger.Warn().Str("session", name).Msg("No cookies to save")
		return
	}
	st, err := a.Sessions()
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Session store unavailable")
		return
	}
	if err := st.Save(auth.NewSession(name, url, res.Cookies)); err != nil {
		a.Logger.Warn().Err(err).Str("session", name).Msg("Could not save session")
		return
	}
	a.Logger.Info().Str("session", name).Str("backend", st.Backend()).Int("cookies", len(res.Cookies)).Msg("Session saved")
}

// Close releases application resources. Browsers are owned by each crawl,
// so this only logs the uptime.
func (a *Application) Close(ctx context.Context) error {
	uptime := time.Since(a.startTime)
	a.Logger.Debug().Dur("uptime", uptime).Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
