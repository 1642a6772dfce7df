package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/law-makers/harvest/internal/crawler"
	"github.com/law-makers/harvest/pkg/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestStyleRespectsNoColor(t *testing.T) {
	prev := NoColor
	defer func() { NoColor = prev }()

	NoColor = true
	assert.Equal(t, "ok", Success("ok"))
	NoColor = false
	assert.Equal(t, ColorGreen+"ok"+ColorReset, Success("ok"))
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 10)
	p.Observe(crawler.Event{Kind: crawler.EventLinksFound, Page: 1, Count: 12})
	p.Observe(crawler.Event{Kind: crawler.EventBatchDone, Total: 4})
	assert.Equal(t, 4, p.Current())
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	o := LogObserver{Logger: zerolog.New(&buf).Level(zerolog.DebugLevel)}

	o.Observe(crawler.Event{Kind: crawler.EventRecordAccepted, URL: "https://example.com/a", Record: &models.CrawlRecord{Title: "Team Wins Title"}})
	o.Observe(crawler.Event{Kind: crawler.EventLinkFailed, URL: "https://example.com/b", Err: errors.New("timeout")})

	out := buf.String()
	assert.Contains(t, out, `"title":"Team Wins Title"`)
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"error":"timeout"`)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
}
