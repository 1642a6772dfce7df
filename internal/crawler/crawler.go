// Package crawler drives a crawl: it walks listing pages, fetches the
// articles they link to in parallel, and collects the records that pass
// the filter.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/law-makers/harvest/internal/browser"
	"github.com/law-makers/harvest/internal/discover"
	"github.com/law-makers/harvest/internal/extract"
	"github.com/law-makers/harvest/internal/filter"
	"github.com/law-makers/harvest/internal/navigator"
	"github.com/law-makers/harvest/internal/paginate"
	"github.com/law-makers/harvest/internal/ratelimit"
	"github.com/law-makers/harvest/internal/runctx"
	"github.com/law-makers/harvest/pkg/models"
	"github.com/rs/zerolog/log"
)

// Sink receives the records of a finished run
type Sink interface {
	Write(records []*models.CrawlRecord, sourceURL string) error
}

// DefaultStalePages is how many advances without new links end a run
const DefaultStalePages = 3

// Options tune a crawl. Zero counts and timeouts fall back to
// DefaultOptions; Navigation is used as given.
type Options struct {
	Concurrency    int
	InitialTimeout time.Duration
	LinkTimeout    time.Duration
	// PageSettle is waited after the listing advances to a new page.
	PageSettle time.Duration
	// MaxPages caps how many listing pages are walked; 0 means no cap.
	MaxPages int
	// StalePages ends the run after this many advances in a row that
	// surfaced no unvisited links. Zero means DefaultStalePages.
	StalePages int

	Navigation navigator.Options
	Pagination paginate.Options
	Limiter    ratelimit.Limiter
	Observer   Observer
	// CaptureCookies copies the session's cookies into the Result.
	CaptureCookies bool
}

// DefaultOptions returns the stock crawl settings
func DefaultOptions() Options {
	return Options{
		Concurrency:    defaultConcurrency,
		InitialTimeout: 60 * time.Second,
		LinkTimeout:    45 * time.Second,
		PageSettle:     2 * time.Second,
		Navigation:     navigator.DefaultOptions(),
		Pagination:     paginate.DefaultOptions(),
	}
}

// Result is the outcome of one run
type Result struct {
	RunID   string
	Records []*models.CrawlRecord

	Pages    int
	Visited  int
	Rejected int
	Failed   int
	Elapsed  time.Duration
	// Interrupted is set when the context ended the run early.
	Interrupted bool
	Cookies     []*network.Cookie
}

// Crawler runs crawls over one browser session
type Crawler struct {
	session   browser.Session
	nav       *navigator.Navigator
	advancer  *paginate.Advancer
	extractor *extract.Extractor
	pool      *Pool
	opts      Options
}

// New creates a crawler using session for every page it opens
func New(session browser.Session, opts Options) *Crawler {
	def := DefaultOptions()
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	if opts.InitialTimeout <= 0 {
		opts.InitialTimeout = def.InitialTimeout
	}
	if opts.LinkTimeout <= 0 {
		opts.LinkTimeout = def.LinkTimeout
	}
	return &Crawler{
		session:   session,
		nav:       navigator.New(session, opts.Navigation),
		advancer:  paginate.New(opts.Pagination),
		extractor: extract.New(),
		pool:      NewPool(opts.Concurrency),
		opts:      opts,
	}
}

// outcome is what one fetch task produced
type outcome struct {
	record *models.CrawlRecord
	reason string
	err    error
}

// ValidateConfig checks the fields a run depends on
func ValidateConfig(cfg *models.CrawlConfig) error {
	switch {
	case cfg == nil:
		return NewCrawlError(ErrCodeInvalidConfig, "missing config", "", nil)
	case cfg.TargetURL == "":
		return NewCrawlError(ErrCodeInvalidConfig, "target URL is required", "", nil)
	case cfg.MaxItems < 1:
		return NewCrawlError(ErrCodeInvalidConfig, fmt.Sprintf("max items must be at least 1, got %d", cfg.MaxItems), "", nil)
	}
	r := cfg.DateRange
	if r.Start != nil && r.End != nil && r.Start.After(*r.End) {
		return NewCrawlError(ErrCodeInvalidConfig, "start date is after end date", "", nil)
	}
	return nil
}

// Run crawls cfg.TargetURL until cfg.MaxItems records are accepted or no
// further listing page is reachable. Only a failed start page load (or an
// invalid config) is returned as an error; per-link failures are reported
// as events.
func (c *Crawler) Run(ctx context.Context, cfg *models.CrawlConfig) (*Result, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	ctx, run := runctx.New(ctx, cfg.TargetURL)
	em := &emitter{obs: c.opts.Observer, runID: run.ID}
	logger := run.Logger(log.Logger)
	res := &Result{RunID: run.ID}

	em.emit(Event{Kind: EventRunStarted, URL: cfg.TargetURL, Max: cfg.MaxItems})

	page, err := c.nav.OpenListing(ctx, cfg.TargetURL, c.opts.InitialTimeout)
	if err != nil {
		return nil, runctx.Wrap(ctx, NewCrawlError(ErrCodeInitialLoad, "failed to load start page", cfg.TargetURL, err))
	}
	defer page.Close()

	registry := NewRegistry()
	res.Pages = 1
	stalePages := c.opts.StalePages
	if stalePages <= 0 {
		stalePages = DefaultStalePages
	}
	stale := 0
	em.emit(Event{Kind: EventListingLoaded, URL: cfg.TargetURL, Page: res.Pages})

	for len(res.Records) < cfg.MaxItems {
		links, err := discover.Discover(ctx, page)
		if err != nil {
			logger.Debug().Err(err).Int("page", res.Pages).Msg("Link discovery failed")
			links = nil
		}

		batch := make([]string, 0, len(links))
		for _, link := range links {
			if registry.MarkVisited(link) {
				batch = append(batch, link)
			}
		}
		em.emit(Event{Kind: EventLinksFound, Page: res.Pages, Count: len(batch), Total: len(res.Records), Max: cfg.MaxItems})

		// an inert "next" control keeps reporting success on the same page
		if res.Pages > 1 && len(batch) == 0 {
			stale++
			if stale >= stalePages {
				logger.Debug().Int("page", res.Pages).Int("stale_pages", stale).Msg("Pagination stopped surfacing new links")
				break
			}
		} else {
			stale = 0
		}

		outcomes := RunBatch(ctx, c.pool, batch, func(ctx context.Context, link string) outcome {
			o := c.fetch(ctx, cfg, link)
			switch {
			case o.err != nil:
				em.emit(Event{Kind: EventLinkFailed, URL: link, Err: o.err})
			case o.reason != "":
				em.emit(Event{Kind: EventRecordRejected, URL: link, Reason: o.reason, Record: o.record})
			default:
				em.emit(Event{Kind: EventRecordAccepted, URL: link, Record: o.record})
			}
			return o
		})

		accepted := 0
		for _, o := range outcomes {
			switch {
			case o.err != nil:
				res.Failed++
			case o.reason != "":
				res.Rejected++
			case o.record == nil:
				// the task panicked and RunBatch left its slot empty
				res.Failed++
			default:
				res.Records = append(res.Records, o.record)
				accepted++
			}
		}
		if len(res.Records) > cfg.MaxItems {
			res.Records = res.Records[:cfg.MaxItems]
		}
		em.emit(Event{Kind: EventBatchDone, Page: res.Pages, Count: accepted, Total: len(res.Records), Max: cfg.MaxItems})

		if len(res.Records) >= cfg.MaxItems {
			break
		}
		if ctx.Err() != nil {
			res.Interrupted = true
			break
		}
		if c.opts.MaxPages > 0 && res.Pages >= c.opts.MaxPages {
			logger.Debug().Int("max_pages", c.opts.MaxPages).Msg("Listing page cap reached")
			break
		}

		method, err := c.advancer.AdvanceWith(ctx, page)
		if err != nil {
			logger.Debug().Err(err).Msg("Pagination failed")
		}
		if method == paginate.MethodNone {
			break
		}
		res.Pages++
		em.emit(Event{Kind: EventPaginated, Page: res.Pages, Method: string(method)})

		if err := page.Sleep(ctx, c.opts.PageSettle); err != nil {
			res.Interrupted = true
			break
		}
	}

	if ctx.Err() != nil {
		res.Interrupted = true
	}
	if c.opts.CaptureCookies {
		cookies, err := page.Cookies(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("Could not read session cookies")
		}
		res.Cookies = cookies
	}
	res.Visited = registry.Len()
	res.Elapsed = run.Elapsed()
	em.emit(Event{Kind: EventRunFinished, URL: cfg.TargetURL, Page: res.Pages, Total: len(res.Records), Max: cfg.MaxItems})
	return res, nil
}

// RunTo runs the crawl and hands the records to sink. The sink is not
// called when the start page could not be loaded.
func (c *Crawler) RunTo(ctx context.Context, cfg *models.CrawlConfig, sink Sink) (*Result, error) {
	res, err := c.Run(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := sink.Write(res.Records, cfg.TargetURL); err != nil {
		return res, NewCrawlError(ErrCodeOutput, "failed to write records", cfg.TargetURL, err)
	}
	return res, nil
}

// fetch loads one article in its own page and runs extraction and the
// filter on it. The page is closed on every path.
func (c *Crawler) fetch(ctx context.Context, cfg *models.CrawlConfig, link string) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			o = outcome{err: NewCrawlError(ErrCodeExtraction, "panic while processing page", link, fmt.Errorf("%v", r))}
		}
	}()

	if c.opts.Limiter != nil {
		if err := c.opts.Limiter.Wait(ctx, link); err != nil {
			return outcome{err: NewCrawlError(ErrCodeNavigation, "rate limit wait aborted", link, err)}
		}
	}

	page, err := c.nav.OpenIsolated(ctx, link, c.opts.LinkTimeout)
	if err != nil {
		return outcome{err: NewCrawlError(ErrCodeNavigation, "failed to load page", link, err)}
	}
	defer page.Close()

	html, err := page.Content(ctx)
	if err != nil {
		return outcome{err: NewCrawlError(ErrCodeNavigation, "failed to read page content", link, err)}
	}

	rec, err := c.extractor.Extract(html, link)
	if err != nil {
		return outcome{err: NewCrawlError(ErrCodeExtraction, "failed to parse page", link, err)}
	}
	if reason := filter.Reason(rec, cfg); reason != "" {
		return outcome{record: rec, reason: reason}
	}
	return outcome{record: rec}
}

// IsFatal reports whether err aborted a run before any record was collected
func IsFatal(err error) bool {
	return errors.Is(err, ErrInitialLoad) || errors.Is(err, ErrInvalidConfig)
}
