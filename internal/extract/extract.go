// Package extract pulls article metadata out of an HTML document with a
// fixed, ordered cascade of strategies per field.
package extract

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/harvest/internal/datetime"
	"github.com/law-makers/harvest/pkg/models"
	"github.com/rs/zerolog/log"
)

// Document is a parsed page plus its source URL. Structured data is parsed
// on first use and shared by every strategy.
type Document struct {
	*goquery.Document
	URL *url.URL

	ldOnce   sync.Once
	entities []Entity
}

// NewDocument parses html. pageURL may be empty.
func NewDocument(html, pageURL string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	d := &Document{Document: doc}
	if pageURL != "" {
		if u, err := url.Parse(pageURL); err == nil {
			d.URL = u
		}
	}
	return d, nil
}

// Entities returns the page's structured-data objects in document order.
func (d *Document) Entities() []Entity {
	d.ldOnce.Do(func() {
		d.entities = parseStructuredData(d.Document)
	})
	return d.entities
}

// Strategy produces one candidate value for a field, or "".
type Strategy func(doc *Document) string

// Cascade is an ordered list of strategies; earlier entries win.
type Cascade []Strategy

// Run returns the first non-empty normalized result. A strategy that panics
// counts as producing nothing.
func (c Cascade) Run(doc *Document, field string) string {
	for i, s := range c {
		if v := Normalize(try(doc, field, i, s)); v != "" {
			return v
		}
	}
	return ""
}

func try(doc *Document, field string, tier int, s Strategy) (v string) {
	defer func() {
		if r := recover(); r != nil {
			log.Debug().
				Str("field", field).
				Int("tier", tier).
				Interface("panic", r).
				Msg("Extraction strategy failed")
			v = ""
		}
	}()
	return s(doc)
}

// Extractor turns a page into a CrawlRecord
type Extractor struct {
	Title       Cascade
	Date        Cascade
	Author      Cascade
	Category    Cascade
	Description Cascade
	Content     Cascade

	now func() time.Time
}

// New returns an Extractor with the default cascades
func New() *Extractor {
	return &Extractor{
		Title:       TitleStrategies,
		Date:        DateStrategies,
		Author:      AuthorStrategies,
		Category:    CategoryStrategies,
		Description: DescriptionStrategies,
		Content:     ContentStrategies,
		now:         time.Now,
	}
}

// Extract parses html fetched from pageURL and extracts every field
func (e *Extractor) Extract(html, pageURL string) (*models.CrawlRecord, error) {
	doc, err := NewDocument(html, pageURL)
	if err != nil {
		return nil, err
	}
	return e.ExtractDocument(doc, pageURL), nil
}

// ExtractDocument extracts every field from an already parsed document
func (e *Extractor) ExtractDocument(doc *Document, pageURL string) *models.CrawlRecord {
	rec := &models.CrawlRecord{
		URL:         pageURL,
		Title:       e.Title.Run(doc, "title"),
		Date:        datetime.Normalize(e.Date.Run(doc, "date")),
		Author:      e.Author.Run(doc, "author"),
		Content:     e.Content.Run(doc, "content"),
		Description: e.Description.Run(doc, "description"),
		Category:    e.Category.Run(doc, "category"),
		Tags:        Tags(doc),
		ScrapedAt:   e.now().UTC(),
	}
	if rec.Content != "" {
		rec.ContentHTML = contentHTML(doc)
	}
	return rec
}
