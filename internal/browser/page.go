package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// idleWindow is how long the network must stay quiet to count as idle.
const idleWindow = 500 * time.Millisecond

// chromePage is a Page backed by a chromedp tab context
type chromePage struct {
	ctx     context.Context
	cancel  context.CancelFunc
	tracker *netTracker
	onClose func()

	closeOnce sync.Once
	closed    bool
	mu        sync.Mutex
}

// run executes actions on the tab, bounded by timeout (when > 0) and by the
// caller's context.
func (p *chromePage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrPageClosed
	}

	var runCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(p.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(p.ctx)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (p *chromePage) Navigate(ctx context.Context, url string, wait WaitCondition, timeout time.Duration) error {
	start := time.Now()
	if err := p.run(ctx, timeout, chromedp.Navigate(url)); err != nil {
		return &NavigationError{URL: url, Wait: wait, Timeout: timeout, Err: err}
	}
	if wait == WaitNetworkIdle {
		remaining := timeout - time.Since(start)
		if timeout > 0 && remaining <= 0 {
			return &NavigationError{URL: url, Wait: wait, Timeout: timeout, Err: context.DeadlineExceeded}
		}
		if err := p.WaitNetworkIdle(ctx, remaining); err != nil {
			return &NavigationError{URL: url, Wait: wait, Timeout: timeout, Err: err}
		}
	}
	return nil
}

func (p *chromePage) WaitNetworkIdle(ctx context.Context, timeout time.Duration) error {
	var deadline <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		deadline = t.C
	}
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for {
		if p.tracker.idleFor() >= idleWindow {
			return nil
		}
		select {
		case <-tick.C:
		case <-deadline:
			return fmt.Errorf("%w after %s", ErrNetworkIdle, timeout)
		case <-ctx.Done():
			return ctx.Err()
		case <-p.ctx.Done():
			return ErrPageClosed
		}
	}
}

func (p *chromePage) Evaluate(ctx context.Context, script string, res any) error {
	return p.run(ctx, 0, chromedp.Evaluate(script, res))
}

// visibilityScript resolves a CSS or XPath selector and reports whether the
// element has a rendered box.
const visibilityScript = `(function(sel) {
	let el = null;
	try {
		if (sel.startsWith('/') || sel.startsWith('(')) {
			el = document.evaluate(sel, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
		} else {
			el = document.querySelector(sel);
		}
	} catch (e) {
		return false;
	}
	if (!el) return false;
	const style = window.getComputedStyle(el);
	if (style.visibility === 'hidden' || style.display === 'none') return false;
	const rect = el.getBoundingClientRect();
	return rect.width > 0 && rect.height > 0;
})(%s)`

func (p *chromePage) IsVisible(ctx context.Context, selector string) (bool, error) {
	arg, err := json.Marshal(selector)
	if err != nil {
		return false, err
	}
	var visible bool
	if err := p.Evaluate(ctx, fmt.Sprintf(visibilityScript, arg), &visible); err != nil {
		return false, err
	}
	return visible, nil
}

func (p *chromePage) ScrollIntoView(ctx context.Context, selector string) error {
	return p.run(ctx, 0, chromedp.ScrollIntoView(selector, chromedp.BySearch))
}

func (p *chromePage) Click(ctx context.Context, selector string, timeout time.Duration) error {
	return p.run(ctx, timeout, chromedp.Click(selector, chromedp.BySearch, chromedp.NodeVisible))
}

func (p *chromePage) ScrollToBottom(ctx context.Context) error {
	return p.Evaluate(ctx, `window.scrollTo(0, document.body.scrollHeight)`, nil)
}

func (p *chromePage) DocumentHeight(ctx context.Context) (float64, error) {
	var h float64
	err := p.Evaluate(ctx, `document.body ? document.body.scrollHeight : 0`, &h)
	return h, err
}

func (p *chromePage) Title(ctx context.Context) (string, error) {
	var title string
	err := p.run(ctx, 0, chromedp.Title(&title))
	return strings.TrimSpace(title), err
}

func (p *chromePage) URL(ctx context.Context) (string, error) {
	var loc string
	err := p.run(ctx, 0, chromedp.Location(&loc))
	return loc, err
}

func (p *chromePage) Content(ctx context.Context) (string, error) {
	var html string
	err := p.run(ctx, 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (p *chromePage) Cookies(ctx context.Context) ([]*network.Cookie, error) {
	loc, err := p.URL(ctx)
	if err != nil {
		return nil, err
	}
	var cookies []*network.Cookie
	err = p.run(ctx, 0, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().WithURLs([]string{loc}).Do(ctx)
		return err
	}))
	return cookies, err
}

func (p *chromePage) SetCookies(ctx context.Context, cookies []*network.CookieParam) error {
	if len(cookies) == 0 {
		return nil
	}
	return p.run(ctx, 0, network.SetCookies(cookies))
}

func (p *chromePage) Sleep(ctx context.Context, d time.Duration) error {
	return Sleep(ctx, d)
}

// Close closes the tab. It is safe to call more than once.
func (p *chromePage) Close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		p.cancel()
		if p.onClose != nil {
			p.onClose()
		}
	})
	return nil
}

// netTracker counts in-flight requests for a tab from network events
type netTracker struct {
	mu       sync.Mutex
	inflight map[network.RequestID]struct{}
	lastSeen time.Time
}

func newNetTracker() *netTracker {
	return &netTracker{
		inflight: make(map[network.RequestID]struct{}),
		lastSeen: time.Now(),
	}
}

func (t *netTracker) handle(ev interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev := ev.(type) {
	case *network.EventRequestWillBeSent:
		t.inflight[ev.RequestID] = struct{}{}
	case *network.EventLoadingFinished:
		delete(t.inflight, ev.RequestID)
	case *network.EventLoadingFailed:
		delete(t.inflight, ev.RequestID)
	default:
		return
	}
	t.lastSeen = time.Now()
}

// idleFor returns how long the tab has had no requests in flight, or zero
// while any are pending.
func (t *netTracker) idleFor() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.inflight) > 0 {
		return 0
	}
	return time.Since(t.lastSeen)
}
