package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/chromedp/cdproto/network"
	"github.com/law-makers/harvest/internal/auth"
	"github.com/law-makers/harvest/internal/browser"
	"github.com/law-makers/harvest/internal/browser/browsertest"
	"github.com/law-makers/harvest/internal/config"
	"github.com/law-makers/harvest/internal/crawler"
	"github.com/law-makers/harvest/internal/output"
	"github.com/law-makers/harvest/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listing = "https://example.com/news"

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.PageSettle = 0
	cfg.SettleDelay = 0
	cfg.ChallengeDelay = 0
	cfg.ContentWait = 0
	cfg.ScrollWait = 0
	return cfg
}

func fakeSite() *browsertest.Session {
	s := browsertest.NewSession()
	var links []string
	for i := 0; i < 3; i++ {
		u := fmt.Sprintf("https://example.com/news/2024/article-number-%d", i)
		links = append(links, u)
		s.AddPage(u, browsertest.PageFixture{HTML: fmt.Sprintf(`<html><body><h1>Story %d</h1><article>Body</article></body></html>`, i)})
	}
	s.AddPage(listing, browsertest.PageFixture{Titles: []string{"News"}, Links: links})
	return s
}

func newTestApp(t *testing.T, cfg *config.Config, s *browsertest.Session) (*Application, *[]browser.Options) {
	t.Helper()
	a, err := New(cfg)
	require.NoError(t, err)
	var launched []browser.Options
	a.Launch = func(ctx context.Context, opts browser.Options) (browser.Session, error) {
		launched = append(launched, opts)
		return s, nil
	}
	a.SetSessions(auth.NewFileStore(t.TempDir()))
	return a, &launched
}

func TestCrawl_WritesOutputAndMetrics(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.MetricsFile = filepath.Join(dir, "harvest.prom")
	cfg.Proxy = "http://proxy:8080"
	a, launched := newTestApp(t, cfg, fakeSite())

	sink := output.NewFileSink(filepath.Join(dir, "out"), output.FormatJSON)
	var events int
	res, err := a.Crawl(context.Background(), &models.CrawlConfig{TargetURL: listing, MaxItems: 2, Headless: true}, sink,
		crawler.ObserverFunc(func(crawler.Event) { events++ }))
	require.NoError(t, err)

	assert.Len(t, res.Records, 2)
	assert.Positive(t, events)
	require.Len(t, *launched, 1)
	assert.True(t, (*launched)[0].Headless)
	assert.Equal(t, "http://proxy:8080", (*launched)[0].Proxy)

	assert.FileExists(t, filepath.Join(dir, "out.json"))
	prom, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "harvest_records_total")
}

func TestCrawl_SessionRoundTrip(t *testing.T) {
	cfg := testConfig()
	cfg.SaveSession = "news"
	s := fakeSite()
	a, _ := newTestApp(t, cfg, s)

	// a cookie set during the run is captured into the saved session
	page, err := s.NewPage(context.Background())
	require.NoError(t, err)
	require.NoError(t, page.SetCookies(context.Background(), []*network.CookieParam{{Name: "sid", Value: "abc", Domain: "example.com"}}))
	require.NoError(t, page.Close())

	_, err = a.Crawl(context.Background(), &models.CrawlConfig{TargetURL: listing, MaxItems: 1}, output.NewFileSink(filepath.Join(t.TempDir(), "o"), output.FormatCSV))
	require.NoError(t, err)

	st, err := a.Sessions()
	require.NoError(t, err)
	saved, err := st.Load("news")
	require.NoError(t, err)
	require.Len(t, saved.Cookies, 1)
	assert.Equal(t, "sid", saved.Cookies[0].Name)

	// a second run loads it into a fresh browser
	cfg2 := testConfig()
	cfg2.Session = "news"
	fresh := fakeSite()
	b, _ := newTestApp(t, cfg2, fresh)
	b.SetSessions(st)
	_, err = b.Crawl(context.Background(), &models.CrawlConfig{TargetURL: listing, MaxItems: 1}, output.NewFileSink(filepath.Join(t.TempDir(), "o"), output.FormatCSV))
	require.NoError(t, err)
	require.Len(t, fresh.StoredCookies(), 1)
	assert.Equal(t, "abc", fresh.StoredCookies()[0].Value)
}

func TestCrawl_MissingSession(t *testing.T) {
	cfg := testConfig()
	cfg.Session = "nope"
	a, launched := newTestApp(t, cfg, fakeSite())

	_, err := a.Crawl(context.Background(), &models.CrawlConfig{TargetURL: listing, MaxItems: 1}, output.NewFileSink(filepath.Join(t.TempDir(), "o"), output.FormatCSV))
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
	assert.Empty(t, *launched)
}

func TestCrawl_LaunchFailureIsFatal(t *testing.T) {
	a, err := New(testConfig())
	require.NoError(t, err)
	a.Launch = func(context.Context, browser.Options) (browser.Session, error) {
		return nil, errors.New("no chrome")
	}

	_, err = a.Crawl(context.Background(), &models.CrawlConfig{TargetURL: listing, MaxItems: 1}, output.NewFileSink(filepath.Join(t.TempDir(), "o"), output.FormatCSV))
	assert.True(t, crawler.IsFatal(err))
}

func TestCrawlerOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Retries = 3
	cfg.RateLimit = 2
	cfg.Concurrency = 9
	a, err := New(cfg)
	require.NoError(t, err)

	opts := a.CrawlerOptions()
	assert.Equal(t, 9, opts.Concurrency)
	assert.Equal(t, 3, opts.Navigation.Retry.MaxAttempts)
	assert.NotNil(t, opts.Limiter)
	assert.False(t, opts.CaptureCookies)

	cfg.RateLimit = 0
	b, err := New(cfg)
	require.NoError(t, err)
	assert.Nil(t, b.CrawlerOptions().Limiter)
}

func TestCrawl_RotatesProxyOnStartFailure(t *testing.T) {
	cfg := testConfig()
	cfg.Proxy = "http://a:1,http://b:2"
	cfg.Headers = []string{"accept-language: de-DE"}
	a, err := New(cfg)
	require.NoError(t, err)

	var used []string
	a.Launch = func(ctx context.Context, opts browser.Options) (browser.Session, error) {
		used = append(used, opts.Proxy)
		assert.Equal(t, "de-DE", opts.Headers["Accept-Language"])
		if opts.Proxy == "http://a:1" {
			return browsertest.NewSession(), nil // every navigation fails
		}
		return fakeSite(), nil
	}

	res, err := a.Crawl(context.Background(), &models.CrawlConfig{TargetURL: listing, MaxItems: 1}, output.NewFileSink(filepath.Join(t.TempDir(), "o"), output.FormatCSV))
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
	assert.Equal(t, []string{"http://a:1", "http://b:2"}, used)
}

func TestCrawl_GivesUpAfterEveryProxy(t *testing.T) {
	cfg := testConfig()
	cfg.Proxies = []string{"http://a:1", "http://b:2"}
	a, err := New(cfg)
	require.NoError(t, err)

	launches := 0
	a.Launch = func(context.Context, browser.Options) (browser.Session, error) {
		launches++
		return browsertest.NewSession(), nil
	}

	_, err = a.Crawl(context.Background(), &models.CrawlConfig{TargetURL: listing, MaxItems: 1}, output.NewFileSink(filepath.Join(t.TempDir(), "o"), output.FormatCSV))
	assert.ErrorIs(t, err, crawler.ErrInitialLoad)
	assert.Equal(t, 2, launches)
}
