// Package output writes crawl records to files.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/law-makers/harvest/pkg/models"
	"github.com/rs/zerolog/log"
)

// Format is an output file format
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatXML      Format = "xml"
	FormatXLSX     Format = "xlsx"
	FormatMarkdown Format = "md"
	FormatSQLite   Format = "sqlite"
)

// Formats lists every supported format
var Formats = []Format{FormatCSV, FormatJSON, FormatXML, FormatXLSX, FormatMarkdown, FormatSQLite}

// ParseFormat maps a user-supplied name to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "xml":
		return FormatXML, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "sqlite", "sqlite3", "db":
		return FormatSQLite, nil
	}
	return "", fmt.Errorf("unsupported output format %q (supported: %s)", s, formatList())
}

func formatList() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// Ext returns the file extension for the format
func (f Format) Ext() string {
	if f == FormatSQLite {
		return "db"
	}
	return string(f)
}

// Path returns base with the format's extension
func Path(base string, f Format) string {
	return base + "." + f.Ext()
}

// tabularHeader is the column order of csv, xlsx and sqlite output
var tabularHeader = []string{"url", "title", "date", "author", "category", "tags", "description", "content", "scraped_at"}

func tabularRow(r *models.CrawlRecord) []string {
	return []string{
		r.URL,
		r.Title,
		r.Date,
		r.Author,
		r.Category,
		strings.Join(r.Tags, ", "),
		r.Description,
		r.Content,
		r.ScrapedAt.UTC().Format(time.RFC3339),
	}
}

// FileSink writes records to a single file
type FileSink struct {
	Format Format
	Path   string
}

// NewFileSink creates a sink writing base.<ext>
func NewFileSink(base string, f Format) *FileSink {
	return &FileSink{Format: f, Path: Path(base, f)}
}

// Write implements crawler.Sink
func (s *FileSink) Write(records []*models.CrawlRecord, sourceURL string) error {
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var err error
	switch s.Format {
	case FormatCSV:
		err = SaveCSV(records, s.Path)
	case FormatJSON:
		err = SaveJSON(records, sourceURL, s.Path)
	case FormatXML:
		err = SaveXML(records, sourceURL, s.Path)
	case FormatXLSX:
		err = SaveXLSX(records, sourceURL, s.Path)
	case FormatMarkdown:
		err = SaveMarkdown(records, sourceURL, s.Path)
	case FormatSQLite:
		err = SaveSQLite(records, sourceURL, s.Path)
	default:
		err = fmt.Errorf("unsupported output format %q", s.Format)
	}
	if err != nil {
		return err
	}

	log.Debug().
		Str("path", s.Path).
		Str("format", string(s.Format)).
		Int("records", len(records)).
		Msg("Output written")
	return nil
}
