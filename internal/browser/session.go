package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// DefaultUserAgent is a desktop Chrome user agent; automation user agents
// trip most anti-bot interstitials.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// stealthScript hides the webdriver flag before any page script runs.
const stealthScript = `Object.defineProperty(navigator, 'webdriver', { get: () => undefined });`

// Options configures a Chrome session
type Options struct {
	Headless   bool
	UserAgent  string
	Proxy      string
	ChromePath string
	Locale     string
	Width      int64
	Height     int64
	// Headers are sent with every request of every page.
	Headers   map[string]string
	ExtraArgs []chromedp.ExecAllocatorOption
}

// ChromeSession is a Session backed by one Chrome process. Every page is a
// tab in the same browser context, so cookies and challenge clearances are
// shared across the run.
type ChromeSession struct {
	opts        Options
	allocCancel context.CancelFunc
	browserCtx  context.Context
	browserStop context.CancelFunc

	mu     sync.Mutex
	pages  map[*chromePage]struct{}
	closed bool
}

// NewChromeSession launches Chrome and returns a session bound to ctx.
func NewChromeSession(ctx context.Context, opts Options) (*ChromeSession, error) {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Locale == "" {
		opts.Locale = "en-US"
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 1280, 720
	}

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-prompt-on-repost", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("lang", opts.Locale),
		chromedp.WindowSize(int(opts.Width), int(opts.Height)),
		chromedp.UserAgent(opts.UserAgent),
	}

	if path := FindChrome(opts.ChromePath); path != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(path)}, allocOpts...)
	}

	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}

	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy))
	}
	allocOpts = append(allocOpts, opts.ExtraArgs...)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserStop := chromedp.NewContext(allocCtx)

	// Start the browser now so a missing binary fails the run up front.
	if err := chromedp.Run(browserCtx); err != nil {
		browserStop()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	log.Debug().
		Bool("headless", opts.Headless).
		Str("proxy", opts.Proxy).
		Msg("Browser session started")

	return &ChromeSession{
		opts:        opts,
		allocCancel: allocCancel,
		browserCtx:  browserCtx,
		browserStop: browserStop,
		pages:       make(map[*chromePage]struct{}),
	}, nil
}

// NewPage opens a new tab in the shared browser context
func (s *ChromeSession) NewPage(ctx context.Context) (Page, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("browser session is closed")
	}
	s.mu.Unlock()

	tabCtx, cancel := chromedp.NewContext(s.browserCtx)
	tracker := newNetTracker()
	chromedp.ListenTarget(tabCtx, tracker.handle)

	setup := chromedp.Tasks{
		network.Enable(),
		chromedp.EmulateViewport(s.opts.Width, s.opts.Height),
		emulation.SetLocaleOverride().WithLocale(s.opts.Locale),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
	}
	if len(s.opts.Headers) > 0 {
		h := make(network.Headers, len(s.opts.Headers))
		for k, v := range s.opts.Headers {
			h[k] = v
		}
		setup = append(setup, network.SetExtraHTTPHeaders(h))
	}

	// Tie the setup to the caller's deadline without handing the caller's
	// context to chromedp: cancelling the first context of a tab closes it.
	stop := context.AfterFunc(ctx, cancel)
	err := chromedp.Run(tabCtx, setup)
	stop()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	p := &chromePage{ctx: tabCtx, cancel: cancel, tracker: tracker}
	p.onClose = func() { s.forget(p) }

	s.mu.Lock()
	s.pages[p] = struct{}{}
	s.mu.Unlock()
	return p, nil
}

func (s *ChromeSession) forget(p *chromePage) {
	s.mu.Lock()
	delete(s.pages, p)
	s.mu.Unlock()
}

// Close shuts down all tabs and the browser process
func (s *ChromeSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	pages := make([]*chromePage, 0, len(s.pages))
	for p := range s.pages {
		pages = append(pages, p)
	}
	s.mu.Unlock()

	for _, p := range pages {
		_ = p.Close()
	}

	s.browserStop()
	s.allocCancel()
	log.Debug().Msg("Browser session closed")
	return nil
}
