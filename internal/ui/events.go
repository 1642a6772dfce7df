package ui

import (
	"github.com/law-makers/harvest/internal/crawler"
	"github.com/rs/zerolog"
)

// LogObserver writes crawl events as structured log lines
type LogObserver struct {
	Logger zerolog.Logger
}

// Observe implements crawler.Observer
func (o LogObserver) Observe(e crawler.Event) {
	l := o.Logger
	switch e.Kind {
	case crawler.EventRunStarted:
		l.Info().Str("run_id", e.RunID).Str("url", e.URL).Int("max_items", e.Max).Msg("Crawl started")
	case crawler.EventListingLoaded:
		l.Info().Str("url", e.URL).Msg("Listing page loaded")
	case crawler.EventLinksFound:
		l.Info().Int("page", e.Page).Int("links", e.Count).Msg("Found potential article links")
	case crawler.EventRecordAccepted:
		l.Debug().Str("url", e.URL).Str("title", truncate(recordTitle(e), 60)).Msg("Extracted")
	case crawler.EventRecordRejected:
		l.Debug().Str("url", e.URL).Str("reason", e.Reason).Str("title", truncate(recordTitle(e), 40)).Msg("Skipped")
	case crawler.EventLinkFailed:
		l.Warn().Str("url", e.URL).Err(e.Err).Msg("Failed to scrape link")
	case crawler.EventBatchDone:
		l.Info().Int("page", e.Page).Int("accepted", e.Count).Int("total", e.Total).Msg("Batch finished")
	case crawler.EventPaginated:
		l.Info().Int("page", e.Page).Str("method", e.Method).Msg("Navigated to next page")
	case crawler.EventRunFinished:
		l.Info().Int("records", e.Total).Int("pages", e.Page).Msg("Crawl finished")
	}
}

func recordTitle(e crawler.Event) string {
	if e.Record == nil {
		return ""
	}
	return e.Record.Title
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
