// Package browsertest provides a scripted browser.Session for tests.
package browsertest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/law-makers/harvest/internal/browser"
)

// ErrUnknownURL is returned when navigating to a URL with no PageFixture.
var ErrUnknownURL = errors.New("net::ERR_NAME_NOT_RESOLVED")

// PageFixture scripts what a URL looks like once loaded.
type PageFixture struct {
	// Titles are returned by successive Title calls; the last one repeats.
	Titles []string
	HTML   string
	// Links are the absolute hrefs the link-discovery script would see.
	Links []string
	// Err fails the navigation.
	Err error
	// Delay holds the navigation for this long (bounded by the timeout).
	Delay time.Duration
}

// Session is an in-memory browser.Session. All pages share its state, the
// way tabs share a browsing context.
type Session struct {
	mu sync.Mutex

	fixtures    map[string]*PageFixture
	titleCalls  map[string]int
	Visible     map[string]bool
	ClickErr    map[string]error
	ClickTarget map[string]string
	IdleErr     error
	// Heights are returned by successive DocumentHeight calls; the last repeats.
	Heights []float64

	heightCalls int
	navigations []string
	clicks      []string
	scrolls     int
	open        int
	maxOpen     int
	opened      int
	closed      int
	cookies     []*network.CookieParam
	sessionDone bool
}

// NewSession returns an empty scripted session
func NewSession() *Session {
	return &Session{
		fixtures:    make(map[string]*PageFixture),
		titleCalls:  make(map[string]int),
		Visible:     make(map[string]bool),
		ClickErr:    make(map[string]error),
		ClickTarget: make(map[string]string),
	}
}

// AddPage registers the fixture served for rawURL
func (s *Session) AddPage(rawURL string, fx PageFixture) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixtures[rawURL] = &fx
}

// NewPage implements browser.Session
func (s *Session) NewPage(ctx context.Context) (browser.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionDone {
		return nil, errors.New("browser session is closed")
	}
	s.open++
	s.opened++
	if s.open > s.maxOpen {
		s.maxOpen = s.open
	}
	return &Page{s: s}, nil
}

// Close implements browser.Session
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionDone = true
	return nil
}

// Navigations returns every URL navigated to, in order.
func (s *Session) Navigations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.navigations...)
}

// Clicks returns every clicked selector, in order.
func (s *Session) Clicks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.clicks...)
}

// Scrolls returns how many times ScrollToBottom ran.
func (s *Session) Scrolls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scrolls
}

// PageCounts returns how many pages were opened and closed.
func (s *Session) PageCounts() (opened, closed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened, s.closed
}

// MaxConcurrentPages returns the high-water mark of simultaneously open pages.
func (s *Session) MaxConcurrentPages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxOpen
}

// StoredCookies returns cookies passed to SetCookies.
func (s *Session) StoredCookies() []*network.CookieParam {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*network.CookieParam(nil), s.cookies...)
}

// Page is a scripted browser.Page
type Page struct {
	s      *Session
	url    string
	closed bool
}

var _ browser.Page = (*Page)(nil)

func (p *Page) fixture() (*PageFixture, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if p.closed {
		return nil, browser.ErrPageClosed
	}
	fx, ok := p.s.fixtures[p.url]
	if !ok {
		return nil, fmt.Errorf("no page loaded")
	}
	return fx, nil
}

func (p *Page) Navigate(ctx context.Context, rawURL string, wait browser.WaitCondition, timeout time.Duration) error {
	p.s.mu.Lock()
	if p.closed {
		p.s.mu.Unlock()
		return browser.ErrPageClosed
	}
	p.s.navigations = append(p.s.navigations, rawURL)
	fx, ok := p.s.fixtures[rawURL]
	p.s.mu.Unlock()

	fail := func(err error) error {
		return &browser.NavigationError{URL: rawURL, Wait: wait, Timeout: timeout, Err: err}
	}
	if !ok {
		return fail(ErrUnknownURL)
	}
	if fx.Delay > 0 {
		if timeout > 0 && fx.Delay > timeout {
			if err := browser.Sleep(ctx, timeout); err != nil {
				return fail(err)
			}
			return fail(context.DeadlineExceeded)
		}
		if err := browser.Sleep(ctx, fx.Delay); err != nil {
			return fail(err)
		}
	}
	if fx.Err != nil {
		return fail(fx.Err)
	}

	p.s.mu.Lock()
	p.url = rawURL
	p.s.mu.Unlock()
	return nil
}

func (p *Page) WaitNetworkIdle(ctx context.Context, timeout time.Duration) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	return p.s.IdleErr
}

// Evaluate answers the link-discovery script: it fills res with
// {"href", "origin", "links"} for the current page. Other scripts get null.
func (p *Page) Evaluate(ctx context.Context, script string, res any) error {
	fx, err := p.fixture()
	if err != nil {
		return err
	}
	if res == nil {
		return nil
	}
	u, err := url.Parse(p.url)
	if err != nil {
		return err
	}
	payload := map[string]any{
		"href":   p.url,
		"origin": u.Scheme + "://" + u.Host,
		"links":  fx.Links,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, res)
}

func (p *Page) IsVisible(ctx context.Context, selector string) (bool, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	return p.s.Visible[selector], nil
}

func (p *Page) ScrollIntoView(ctx context.Context, selector string) error {
	return nil
}

func (p *Page) Click(ctx context.Context, selector string, timeout time.Duration) error {
	p.s.mu.Lock()
	p.s.clicks = append(p.s.clicks, selector)
	err := p.s.ClickErr[selector]
	target := p.s.ClickTarget[selector]
	p.s.mu.Unlock()

	if err != nil {
		return err
	}
	if target != "" {
		return p.Navigate(ctx, target, browser.WaitContentLoaded, timeout)
	}
	return nil
}

func (p *Page) ScrollToBottom(ctx context.Context) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	p.s.scrolls++
	return nil
}

func (p *Page) DocumentHeight(ctx context.Context) (float64, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if len(p.s.Heights) == 0 {
		return 0, nil
	}
	i := p.s.heightCalls
	if i >= len(p.s.Heights) {
		i = len(p.s.Heights) - 1
	}
	p.s.heightCalls++
	return p.s.Heights[i], nil
}

func (p *Page) Title(ctx context.Context) (string, error) {
	fx, err := p.fixture()
	if err != nil {
		return "", err
	}
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if len(fx.Titles) == 0 {
		return "", nil
	}
	i := p.s.titleCalls[p.url]
	if i >= len(fx.Titles) {
		i = len(fx.Titles) - 1
	}
	p.s.titleCalls[p.url]++
	return fx.Titles[i], nil
}

func (p *Page) URL(ctx context.Context) (string, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	return p.url, nil
}

func (p *Page) Content(ctx context.Context) (string, error) {
	fx, err := p.fixture()
	if err != nil {
		return "", err
	}
	return fx.HTML, nil
}

func (p *Page) Cookies(ctx context.Context) ([]*network.Cookie, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	out := make([]*network.Cookie, 0, len(p.s.cookies))
	for _, c := range p.s.cookies {
		out = append(out, &network.Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path})
	}
	return out, nil
}

func (p *Page) SetCookies(ctx context.Context, cookies []*network.CookieParam) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	p.s.cookies = append(p.s.cookies, cookies...)
	return nil
}

func (p *Page) Sleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

func (p *Page) Close() error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.s.open--
	p.s.closed++
	return nil
}
