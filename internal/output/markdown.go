package output

import (
	"fmt"
	"os"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	urlutil "github.com/law-makers/harvest/internal/utils/url"
	"github.com/law-makers/harvest/pkg/models"
)

// newConverter returns a converter that resolves links against base
func newConverter(base string) *md.Converter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	converter.AddRules(md.Rule{
		Filter: []string{"a"},
		Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
			href, exists := selec.Attr("href")
			if !exists {
				return nil
			}

			resolved := urlutil.ResolveURL(base, href)
			title, hasTitle := selec.Attr("title")
			var titlePart string
			if hasTitle {
				titlePart = fmt.Sprintf(" %q", title)
			}
			str := fmt.Sprintf("[%s](%s)%s", strings.TrimSpace(selec.Text()), resolved, titlePart)
			return &str
		},
	})
	return converter
}

// RecordMarkdown renders one record as a Markdown section. The body comes
// from the record's content HTML when present, else its plain text.
func RecordMarkdown(r *models.CrawlRecord) (string, error) {
	var sb strings.Builder
	title := r.Title
	if title == "" {
		title = r.URL
	}
	fmt.Fprintf(&sb, "## %s\n\n", title)

	meta := []struct{ k, v string }{
		{"URL", r.URL},
		{"Date", r.Date},
		{"Author", r.Author},
		{"Category", r.Category},
		{"Tags", strings.Join(r.Tags, ", ")},
	}
	for _, m := range meta {
		if m.v != "" {
			fmt.Fprintf(&sb, "- **%s:** %s\n", m.k, m.v)
		}
	}
	sb.WriteString("\n")

	if r.Description != "" {
		fmt.Fprintf(&sb, "> %s\n\n", r.Description)
	}

	body := r.Content
	if r.ContentHTML != "" {
		cleaned, err := CleanHTML(r.ContentHTML)
		if err != nil {
			return "", err
		}
		converted, err := newConverter(r.URL).ConvertString(cleaned)
		if err != nil {
			return "", err
		}
		body = converted
	}
	if body = strings.TrimSpace(body); body != "" {
		sb.WriteString(body)
		sb.WriteString("\n\n")
	}
	return sb.String(), nil
}

// SaveMarkdown writes every record into one Markdown document
func SaveMarkdown(records []*models.CrawlRecord, sourceURL, path string) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Crawl of %s\n\n", sourceURL)
	fmt.Fprintf(&sb, "%d records\n\n", len(records))

	for _, r := range records {
		section, err := RecordMarkdown(r)
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", r.URL, err)
		}
		sb.WriteString("---\n\n")
		sb.WriteString(section)
	}
	return os.WriteFile(path, []byte(sb.String()), 0644)
}
