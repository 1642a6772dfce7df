// Package paginate moves a listing page to its next set of items.
package paginate

import (
	"context"
	"fmt"
	"time"

	"github.com/law-makers/harvest/internal/browser"
	"github.com/rs/zerolog/log"
)

// NextSelectors are tried in order. The XPath entries match the innermost
// element whose text contains the word, ignoring case and surrounding text.
var NextSelectors = []string{
	TextSelector("next"),
	TextSelector("more"),
	TextSelector("load more"),
	`[aria-label='Next']`,
	`.next`,
	`.pagination-next`,
	`a[rel='next']`,
}

const (
	upperLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerLetters = "abcdefghijklmnopqrstuvwxyz"
)

// TextSelector returns an XPath matching the innermost visible-text element
// containing word. word must be lower case.
func TextSelector(word string) string {
	has := fmt.Sprintf("contains(translate(normalize-space(.), '%s', '%s'), '%s')", upperLetters, lowerLetters, word)
	return fmt.Sprintf("//body//*[not(self::script or self::style)][%s][not(*[%s])]", has, has)
}

// Options bound every wait
type Options struct {
	Selectors    []string
	ClickTimeout time.Duration
	IdleTimeout  time.Duration
	ScrollWait   time.Duration
}

// DefaultOptions returns the stock selector list and timeouts
func DefaultOptions() Options {
	return Options{
		Selectors:    NextSelectors,
		ClickTimeout: 5 * time.Second,
		IdleTimeout:  10 * time.Second,
		ScrollWait:   2 * time.Second,
	}
}

// Method names how the page advanced
type Method string

const (
	MethodNone   Method = ""
	MethodClick  Method = "click"
	MethodScroll Method = "scroll"
)

// Advancer drives pagination on a listing page
type Advancer struct {
	opts Options
}

// New creates an Advancer. Zero timeouts take the defaults; a zero
// ScrollWait does not wait.
func New(opts Options) *Advancer {
	def := DefaultOptions()
	if opts.Selectors == nil {
		opts.Selectors = def.Selectors
	}
	if opts.ClickTimeout <= 0 {
		opts.ClickTimeout = def.ClickTimeout
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = def.IdleTimeout
	}
	return &Advancer{opts: opts}
}

// Advance tries each next control, then infinite scroll. It reports whether
// more content became reachable.
func (a *Advancer) Advance(ctx context.Context, page browser.Page) (bool, error) {
	m, err := a.AdvanceWith(ctx, page)
	return m != MethodNone, err
}

// AdvanceWith is Advance that also reports which method worked.
func (a *Advancer) AdvanceWith(ctx context.Context, page browser.Page) (Method, error) {
	if a.clickNext(ctx, page) {
		return MethodClick, nil
	}
	if err := ctx.Err(); err != nil {
		return MethodNone, err
	}
	grew, err := a.scroll(ctx, page)
	if err != nil || !grew {
		return MethodNone, err
	}
	return MethodScroll, nil
}

// clickNext clicks the first visible next control. A failed click or idle
// wait moves on to the next selector.
func (a *Advancer) clickNext(ctx context.Context, page browser.Page) bool {
	for _, sel := range a.opts.Selectors {
		if ctx.Err() != nil {
			return false
		}
		visible, err := page.IsVisible(ctx, sel)
		if err != nil || !visible {
			continue
		}

		logger := log.With().Str("selector", sel).Logger()
		if err := page.ScrollIntoView(ctx, sel); err != nil {
			logger.Debug().Err(err).Msg("Scroll into view failed")
			continue
		}
		if err := page.Click(ctx, sel, a.opts.ClickTimeout); err != nil {
			logger.Debug().Err(err).Msg("Click failed")
			continue
		}
		if err := page.WaitNetworkIdle(ctx, a.opts.IdleTimeout); err != nil {
			logger.Debug().Err(err).Msg("Network did not settle after click")
			continue
		}
		logger.Debug().Msg("Advanced via next control")
		return true
	}
	return false
}

// scroll measures the document, scrolls to the bottom, waits, and measures
// again.
func (a *Advancer) scroll(ctx context.Context, page browser.Page) (bool, error) {
	before, err := page.DocumentHeight(ctx)
	if err != nil {
		return false, err
	}
	if err := page.ScrollToBottom(ctx); err != nil {
		return false, err
	}
	if err := page.Sleep(ctx, a.opts.ScrollWait); err != nil {
		return false, err
	}
	after, err := page.DocumentHeight(ctx)
	if err != nil {
		return false, err
	}
	log.Debug().Float64("before", before).Float64("after", after).Msg("Scrolled listing page")
	return after > before, nil
}
