package models

import (
	"time"

	"github.com/law-makers/harvest/internal/datetime"
)

// DateRange bounds records by publication date. Either end may be nil;
// both ends are inclusive.
type DateRange struct {
	Start *datetime.Timestamp
	End   *datetime.Timestamp
}

// IsZero reports whether neither bound is set
func (r DateRange) IsZero() bool {
	return r.Start == nil && r.End == nil
}

// CrawlConfig describes one crawl run. It is not modified once the run starts.
type CrawlConfig struct {
	TargetURL  string
	MaxItems   int
	Headless   bool
	DateRange  DateRange
	Categories []string
}

// CrawlRecord is the metadata extracted from one article page
type CrawlRecord struct {
	URL         string    `json:"url" xml:"url"`
	Title       string    `json:"title" xml:"title"`
	Date        string    `json:"date" xml:"date"`
	Author      string    `json:"author" xml:"author"`
	Content     string    `json:"content" xml:"content"`
	Description string    `json:"description" xml:"description"`
	Category    string    `json:"category" xml:"category"`
	Tags        []string  `json:"tags" xml:"tags>tag"`
	ScrapedAt   time.Time `json:"scraped_at" xml:"scraped_at"`

	// ContentHTML is the markup of the node Content was taken from.
	ContentHTML string `json:"-" xml:"-"`
}

// Valid reports whether the record has the minimum a record needs: a title.
func (r *CrawlRecord) Valid() bool {
	return r != nil && r.Title != ""
}
