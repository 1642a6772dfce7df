// Package browser defines the browser automation capability the crawler
// consumes and provides a Chrome implementation built on chromedp.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
)

// WaitCondition selects what a navigation waits for before returning.
type WaitCondition int

const (
	// WaitContentLoaded returns once the document has been parsed.
	WaitContentLoaded WaitCondition = iota
	// WaitNetworkIdle additionally waits until no requests are in flight.
	WaitNetworkIdle
)

// String returns the string representation of the wait condition
func (w WaitCondition) String() string {
	switch w {
	case WaitContentLoaded:
		return "domcontentloaded"
	case WaitNetworkIdle:
		return "networkidle"
	default:
		return "unknown"
	}
}

// Session is a browsing context shared by every page opened from it.
// Cookies set by one page are visible to the others.
type Session interface {
	// NewPage opens an isolated page (a new tab) in the shared context.
	NewPage(ctx context.Context) (Page, error)

	// Close tears down every page and the browser process.
	Close() error
}

// Page is a single tab. Pages are not safe for concurrent use; the crawler
// gives every concurrent task its own page.
type Page interface {
	Navigate(ctx context.Context, url string, wait WaitCondition, timeout time.Duration) error
	WaitNetworkIdle(ctx context.Context, timeout time.Duration) error

	// Evaluate runs script in the page and unmarshals the result into res.
	// res may be nil when the result is not needed.
	Evaluate(ctx context.Context, script string, res any) error

	IsVisible(ctx context.Context, selector string) (bool, error)
	ScrollIntoView(ctx context.Context, selector string) error
	Click(ctx context.Context, selector string, timeout time.Duration) error
	ScrollToBottom(ctx context.Context) error
	DocumentHeight(ctx context.Context) (float64, error)

	Title(ctx context.Context) (string, error)
	URL(ctx context.Context) (string, error)
	Content(ctx context.Context) (string, error)

	// Cookies returns the cookies visible to the page's current URL.
	Cookies(ctx context.Context) ([]*network.Cookie, error)
	// SetCookies stores cookies in the shared browsing context.
	SetCookies(ctx context.Context, cookies []*network.CookieParam) error

	// Sleep pauses for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error

	Close() error
}

// Common browser errors
var (
	ErrBrowserNotFound = errors.New("chrome browser not found")
	ErrPageClosed      = errors.New("page is closed")
	ErrNotVisible      = errors.New("element not visible")
	ErrNetworkIdle     = errors.New("network did not become idle")
)

// NavigationError reports a failed page load.
type NavigationError struct {
	URL     string
	Wait    WaitCondition
	Timeout time.Duration
	Err     error
}

// Error implements the error interface
func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigate %s (wait=%s, timeout=%s): %v", e.URL, e.Wait, e.Timeout, e.Err)
}

// Unwrap returns the underlying error
func (e *NavigationError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether the navigation ran out of time.
func (e *NavigationError) IsTimeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
