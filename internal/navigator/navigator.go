// Package navigator loads pages through a browser session and waits out
// anti-bot interstitials on the listing page.
package navigator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/law-makers/harvest/internal/browser"
	"github.com/law-makers/harvest/internal/retry"
	"github.com/rs/zerolog/log"
)

// DefaultChallengeMarkers are title fragments of known challenge pages.
var DefaultChallengeMarkers = []string{"Just a moment", "One moment"}

// Options configure page loading
type Options struct {
	ChallengeMarkers  []string
	ChallengeAttempts int
	ChallengeDelay    time.Duration
	// SettleDelay is waited after the listing load so late scripts can run.
	SettleDelay time.Duration
	// ContentWait bounds the best-effort idle wait after a detail load.
	ContentWait time.Duration
	Retry       retry.Config
	// Cookies are loaded into the session before the listing load.
	Cookies []*network.CookieParam
}

// DefaultOptions returns the stock loading behaviour
func DefaultOptions() Options {
	return Options{
		ChallengeMarkers:  DefaultChallengeMarkers,
		ChallengeAttempts: 5,
		ChallengeDelay:    5 * time.Second,
		SettleDelay:       5 * time.Second,
		ContentWait:       15 * time.Second,
		Retry:             retry.DefaultConfig(),
	}
}

// Navigator opens pages in a shared browser session
type Navigator struct {
	session browser.Session
	opts    Options
}

// New creates a navigator over session
func New(session browser.Session, opts Options) *Navigator {
	if len(opts.ChallengeMarkers) == 0 {
		opts.ChallengeMarkers = DefaultChallengeMarkers
	}
	return &Navigator{session: session, opts: opts}
}

// Options returns the navigator's configuration
func (n *Navigator) Options() Options {
	return n.opts
}

// Open loads url into page.
func (n *Navigator) Open(ctx context.Context, page browser.Page, url string, wait browser.WaitCondition, timeout time.Duration) error {
	return page.Navigate(ctx, url, wait, timeout)
}

// OpenListing opens the page the crawl starts from. The load is retried per
// Options.Retry; a challenge page is waited out before the page is
// returned. On error the page has already been closed.
func (n *Navigator) OpenListing(ctx context.Context, url string, timeout time.Duration) (browser.Page, error) {
	page, err := n.session.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	if len(n.opts.Cookies) > 0 {
		if err := page.SetCookies(ctx, n.opts.Cookies); err != nil {
			page.Close()
			return nil, fmt.Errorf("failed to load session cookies: %w", err)
		}
	}

	err = retry.WithRetry(ctx, n.opts.Retry, func(attempt int) error {
		if attempt > 0 {
			log.Debug().Str("url", url).Int("attempt", attempt+1).Msg("Reloading listing page")
		}
		return n.Open(ctx, page, url, browser.WaitContentLoaded, timeout)
	})
	if err != nil {
		page.Close()
		return nil, err
	}

	n.WaitOutChallenge(ctx, page)

	if err := page.Sleep(ctx, n.opts.SettleDelay); err != nil {
		page.Close()
		return nil, err
	}
	return page, nil
}

// WaitOutChallenge re-checks the page title while it looks like a challenge
// page, up to ChallengeAttempts times. It reports whether the last title
// seen was still a challenge; the caller proceeds either way.
func (n *Navigator) WaitOutChallenge(ctx context.Context, page browser.Page) bool {
	for i := 0; i < n.opts.ChallengeAttempts; i++ {
		title, err := page.Title(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("Could not read page title")
			return false
		}
		if !n.IsChallenge(title) {
			return false
		}
		log.Info().
			Str("title", title).
			Int("attempt", i+1).
			Msg("Challenge page detected, waiting")
		if err := page.Sleep(ctx, n.opts.ChallengeDelay); err != nil {
			return true
		}
	}
	title, err := page.Title(ctx)
	return err == nil && n.IsChallenge(title)
}

// IsChallenge reports whether title belongs to a challenge page
func (n *Navigator) IsChallenge(title string) bool {
	for _, m := range n.opts.ChallengeMarkers {
		if strings.Contains(title, m) {
			return true
		}
	}
	return false
}

// OpenIsolated loads url in a new page of its own. The caller must close
// the returned page; on error it is already closed.
func (n *Navigator) OpenIsolated(ctx context.Context, url string, timeout time.Duration) (browser.Page, error) {
	page, err := n.session.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	if err := n.Open(ctx, page, url, browser.WaitContentLoaded, timeout); err != nil {
		page.Close()
		return nil, err
	}
	if n.opts.ContentWait > 0 {
		if err := page.WaitNetworkIdle(ctx, n.opts.ContentWait); err != nil {
			log.Debug().Err(err).Str("url", url).Msg("Content wait ended early")
		}
	}
	return page, nil
}
