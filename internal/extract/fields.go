package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/harvest/internal/datetime"
)

// Title cascade
var TitleStrategies = Cascade{
	FirstHeading,
	TitleElement,
	OpenGraphTitle,
}

// Date cascade. Strategies return the raw date string; the extractor
// normalizes the winner to ISO-8601.
var DateStrategies = Cascade{
	MetaPublishedDate,
	LabelledDate,
	MetaFallbackDate,
	StructuredDataDate,
}

// Author cascade
var AuthorStrategies = Cascade{
	MetaAuthor,
	StructuredDataAuthor,
	AuthorClass,
	BylineSelectors,
	ByPattern,
}

// Category cascade
var CategoryStrategies = Cascade{
	BreadcrumbCategory,
	ArticleSection,
	MetaSection,
	RelCategoryTag,
	CategoryClass,
	URLPathCategory,
	BreadcrumbText,
}

// Description cascade
var DescriptionStrategies = Cascade{
	OpenGraphDescription,
	MetaDescription,
}

// Content cascade
var ContentStrategies = Cascade{
	ArticleElement,
	MainElement,
	ContentClass,
}

// meta returns the content of the first <meta attr="value">.
func meta(doc *Document, attr, value string) string {
	var out string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr(attr); ok && v == value {
			out, _ = s.Attr("content")
			return false
		}
		return true
	})
	return out
}

// firstWithText returns the normalized text of the first match of selector
// that has any.
func firstWithText(doc *Document, selector string) string {
	var out string
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		out = Normalize(s.Text())
		return out == ""
	})
	return out
}

// FirstHeading reads the first <h1>.
func FirstHeading(doc *Document) string {
	return doc.Find("h1").First().Text()
}

// TitleElement reads <title>.
func TitleElement(doc *Document) string {
	return doc.Find("title").First().Text()
}

func OpenGraphTitle(doc *Document) string {
	return meta(doc, "property", "og:title")
}

// MetaPublishedDate reads article:published_time, name="date", then the
// first <time> element's datetime attribute or text.
func MetaPublishedDate(doc *Document) string {
	if v := meta(doc, "property", "article:published_time"); strings.TrimSpace(v) != "" {
		return v
	}
	if v := meta(doc, "name", "date"); strings.TrimSpace(v) != "" {
		return v
	}
	t := doc.Find("time").First()
	if t.Length() == 0 {
		return ""
	}
	if v, ok := t.Attr("datetime"); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return t.Text()
}

var dateLabels = []string{"Updated:", "Created:", "Published:", "Date:"}

// maxDateTokens bounds how much text after a label is read as a date.
const maxDateTokens = 5

// LabelledDate finds text such as "Published: March 3, 2024 10:15 AM" and
// returns the part after the label when it parses as a date.
func LabelledDate(doc *Document) string {
	blocks := doc.Find("span, div, p")
	for _, label := range dateLabels {
		var out string
		blocks.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := s.Text()
			idx := strings.Index(text, label)
			if idx < 0 {
				return true
			}
			tokens := strings.Fields(text[idx+len(label):])
			if len(tokens) > maxDateTokens {
				tokens = tokens[:maxDateTokens]
			}
			candidate := strings.Join(tokens, " ")
			if _, ok := datetime.Parse(candidate); ok {
				out = candidate
			}
			// Only the first element carrying the label is considered.
			return false
		})
		if out != "" {
			return out
		}
	}
	return ""
}

func MetaFallbackDate(doc *Document) string {
	if v := meta(doc, "name", "publish-date"); strings.TrimSpace(v) != "" {
		return v
	}
	return meta(doc, "property", "og:updated_time")
}

// StructuredDataDate reads datePublished, dateCreated, or a video's
// uploadDate, returning the first that parses.
func StructuredDataDate(doc *Document) string {
	for _, e := range doc.Entities() {
		candidates := []string{e.DatePublished, e.DateCreated}
		if e.Kind == KindVideo {
			candidates = append(candidates, e.UploadDate)
		}
		for _, c := range candidates {
			if c == "" {
				continue
			}
			if _, ok := datetime.Parse(c); ok {
				return c
			}
		}
	}
	return ""
}

func MetaAuthor(doc *Document) string {
	if v := meta(doc, "property", "author"); strings.TrimSpace(v) != "" {
		return v
	}
	return meta(doc, "name", "author")
}

// StructuredDataAuthor joins every author name of the first entity that
// names any.
func StructuredDataAuthor(doc *Document) string {
	for _, e := range doc.Entities() {
		if e.HasAuthor && len(e.Authors) > 0 {
			return strings.Join(e.Authors, ", ")
		}
	}
	return ""
}

// AuthorClass reads the first element whose class mentions "author".
func AuthorClass(doc *Document) string {
	var out string
	doc.Find("[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		if !strings.Contains(strings.ToLower(class), "author") {
			return true
		}
		out = Normalize(s.Text())
		return out == ""
	})
	return out
}

var bylineSelectors = []string{
	".byline",
	".auth-nm",
	"[itemprop='author']",
	".writer",
	".journalist",
	".profile-details",
	".story__author",
}

func BylineSelectors(doc *Document) string {
	for _, sel := range bylineSelectors {
		if v := firstWithText(doc, sel); v != "" {
			return v
		}
	}
	return ""
}

const (
	maxBylineChars = 50
	maxBylineWords = 5
)

// ByPattern reads a short "By Jane Doe" block.
func ByPattern(doc *Document) string {
	var out string
	doc.Find("span, div, p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if utf8.RuneCountInString(text) >= maxBylineChars || !strings.HasPrefix(strings.ToLower(text), "by") {
			return true
		}
		if !strings.Contains(text, "By") {
			return true
		}
		name := strings.TrimSpace(text[2:])
		if name == "" || len(strings.Fields(name)) >= maxBylineWords {
			return true
		}
		out = name
		return false
	})
	return out
}

// BreadcrumbCategory takes the second crumb (Home > Section > ...), or the
// only/last one when there are fewer.
func BreadcrumbCategory(doc *Document) string {
	for _, e := range doc.Entities() {
		if e.Kind != KindBreadcrumbList || len(e.Crumbs) == 0 {
			continue
		}
		if len(e.Crumbs) >= 2 {
			if v := Normalize(e.Crumbs[1].Name); v != "" {
				return v
			}
		}
		if v := Normalize(e.Crumbs[len(e.Crumbs)-1].Name); v != "" {
			return v
		}
	}
	return ""
}

// ArticleSection reads articleSection from an Article-like entity.
func ArticleSection(doc *Document) string {
	for _, e := range doc.Entities() {
		if e.Kind == KindArticle && len(e.Sections) > 0 {
			return e.Sections[0]
		}
	}
	return ""
}

func MetaSection(doc *Document) string {
	if v := meta(doc, "property", "article:section"); strings.TrimSpace(v) != "" {
		return v
	}
	if v := meta(doc, "name", "category"); strings.TrimSpace(v) != "" {
		return v
	}
	return meta(doc, "name", "section")
}

// RelCategoryTag reads WordPress-style <a rel="category tag"> links.
func RelCategoryTag(doc *Document) string {
	return firstWithText(doc, "a[rel~='category'][rel~='tag']")
}

func CategoryClass(doc *Document) string {
	return firstWithText(doc, ".category, .post-category, .article-category, .cat-links")
}

var genericSegments = map[string]bool{
	"news":    true,
	"article": true,
	"video":   true,
}

// URLPathCategory guesses a section from the URL path: the first segment
// when it looks like a word, else the second one under looser rules.
func URLPathCategory(doc *Document) string {
	if doc.URL == nil {
		return ""
	}
	var parts []string
	for _, p := range strings.Split(doc.URL.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}

	first := parts[0]
	if !genericSegments[strings.ToLower(first)] && !isNumeric(first) && len(first) > 3 {
		return capitalize(first)
	}
	if len(parts) > 1 {
		second := parts[1]
		if !genericSegments[strings.ToLower(second)] && !isNumeric(second) {
			return capitalize(second)
		}
	}
	return ""
}

// BreadcrumbText splits a rendered breadcrumb trail and takes the second part.
func BreadcrumbText(doc *Document) string {
	text := doc.Find(".breadcrumb, .breadcrumbs, .crt-breadcrumb").First().Text()
	if text == "" {
		return ""
	}
	var parts []string
	for _, p := range strings.FieldsFunc(text, func(r rune) bool { return r == '>' || r == '/' || r == '|' }) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 1 {
		return parts[1]
	}
	return ""
}

func OpenGraphDescription(doc *Document) string {
	return meta(doc, "property", "og:description")
}

func MetaDescription(doc *Document) string {
	return meta(doc, "name", "description")
}

// Tags splits the keywords meta on commas.
func Tags(doc *Document) []string {
	raw := meta(doc, "name", "keywords")
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	tags := make([]string, 0, strings.Count(raw, ",")+1)
	for _, t := range strings.Split(raw, ",") {
		if t = Normalize(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// contentTiers locate the node the body text is read from, in priority order.
var contentTiers = []func(doc *Document) *goquery.Selection{
	func(doc *Document) *goquery.Selection { return doc.Find("article").First() },
	func(doc *Document) *goquery.Selection { return doc.Find("main").First() },
	func(doc *Document) *goquery.Selection {
		return doc.Find("[class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
			class := strings.ToLower(s.AttrOr("class", ""))
			return strings.Contains(class, "content") ||
				strings.Contains(class, "body") ||
				strings.Contains(class, "article")
		}).First()
	},
}

func ArticleElement(doc *Document) string { return visibleText(contentTiers[0](doc)) }
func MainElement(doc *Document) string    { return visibleText(contentTiers[1](doc)) }
func ContentClass(doc *Document) string   { return visibleText(contentTiers[2](doc)) }

// contentHTML returns the markup of the node the content was read from.
func contentHTML(doc *Document) string {
	for _, tier := range contentTiers {
		sel := tier(doc)
		if Normalize(visibleText(sel)) == "" {
			continue
		}
		html, err := sel.Html()
		if err != nil {
			return ""
		}
		return html
	}
	return ""
}

// visibleText returns the text of sel without script and style bodies.
func visibleText(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	clone := sel.Clone()
	clone.Find("script, style, noscript").Remove()
	return clone.Text()
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
