package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/law-makers/harvest/internal/browser"
	"github.com/rs/zerolog/log"
)

// ErrNoCookies is returned when a login produced no cookies to save
var ErrNoCookies = errors.New("no cookies found - login may have failed")

// LoginOptions configures an interactive login
type LoginOptions struct {
	// SessionName is the name to save the session as
	SessionName string
	// URL to open for login
	URL string
	// WaitSelector, when set, marks login as done once it is visible
	WaitSelector string
	// Timeout for the whole login
	Timeout time.Duration
	// PollInterval is how often WaitSelector is checked
	PollInterval time.Duration
}

// Login opens opts.URL in a page of sess and waits until the user has
// logged in: either WaitSelector becomes visible or confirm returns. The
// cookies the site set are returned as a session.
func Login(ctx context.Context, sess browser.Session, opts LoginOptions, confirm func(ctx context.Context) error) (*Session, error) {
	if opts.SessionName == "" {
		return nil, ErrEmptyName
	}
	if opts.URL == "" {
		return nil, fmt.Errorf("URL is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	page, err := sess.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer page.Close()

	log.Info().
		Str("session", opts.SessionName).
		Str("url", opts.URL).
		Msg("Starting interactive login")

	if err := page.Navigate(ctx, opts.URL, browser.WaitContentLoaded, opts.Timeout); err != nil {
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}

	if opts.WaitSelector != "" {
		if err := waitVisible(ctx, page, opts.WaitSelector, opts.PollInterval); err != nil {
			return nil, fmt.Errorf("login timeout or failed: %w", err)
		}
	} else if confirm != nil {
		if err := confirm(ctx); err != nil {
			return nil, err
		}
	}

	cookies, err := page.Cookies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to extract cookies: %w", err)
	}
	if len(cookies) == 0 {
		return nil, ErrNoCookies
	}
	log.Info().Int("cookie_count", len(cookies)).Msg("Cookies extracted")

	return NewSession(opts.SessionName, opts.URL, cookies), nil
}

func waitVisible(ctx context.Context, page browser.Page, selector string, every time.Duration) error {
	for {
		ok, err := page.IsVisible(ctx, selector)
		if err == nil && ok {
			return nil
		}
		if err := page.Sleep(ctx, every); err != nil {
			return err
		}
	}
}
