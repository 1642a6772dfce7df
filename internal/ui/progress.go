package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/law-makers/harvest/internal/crawler"
	"github.com/schollz/progressbar/v3"
)

// Progress draws accepted records against the item cap
type Progress struct {
	bar *progressbar.ProgressBar
}

// NewProgress creates a progress bar writing to w for a run capped at max
func NewProgress(w io.Writer, max int) *Progress {
	bar := progressbar.NewOptions(max,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Harvesting"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionEnableColorCodes(!NoColor),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)
	return &Progress{bar: bar}
}

// Observe implements crawler.Observer
func (p *Progress) Observe(e crawler.Event) {
	switch e.Kind {
	case crawler.EventLinksFound:
		p.bar.Describe(fmt.Sprintf("Page %d: %d links", e.Page, e.Count))
	case crawler.EventPaginated:
		p.bar.Describe(fmt.Sprintf("Page %d", e.Page))
	case crawler.EventBatchDone:
		_ = p.bar.Set(e.Total)
	case crawler.EventRunFinished:
		_ = p.bar.Set(e.Total)
		_ = p.bar.Finish()
	}
}

// Current returns the value shown on the bar
func (p *Progress) Current() int {
	return int(p.bar.State().CurrentNum)
}
