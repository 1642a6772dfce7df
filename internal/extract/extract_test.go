package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDoc(t *testing.T, html, pageURL string) *Document {
	t.Helper()
	doc, err := NewDocument(html, pageURL)
	require.NoError(t, err)
	return doc
}

func TestExtract_HeadingOnly(t *testing.T) {
	e := New()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return fixed }

	rec, err := e.Extract("<html><body><h1>  Team   Wins\n Title </h1></body></html>", "")
	require.NoError(t, err)

	assert.Equal(t, "Team Wins Title", rec.Title)
	assert.Empty(t, rec.Date)
	assert.Empty(t, rec.Author)
	assert.Empty(t, rec.Content)
	assert.Empty(t, rec.Description)
	assert.Empty(t, rec.Category)
	assert.Empty(t, rec.Tags)
	assert.NotNil(t, rec.Tags)
	assert.Empty(t, rec.ContentHTML)
	assert.Equal(t, fixed, rec.ScrapedAt)
}

func TestExtract_FullArticle(t *testing.T) {
	html := `<html><head>
<title>Ignored title</title>
<meta property="og:description" content="  Short   summary ">
<meta name="description" content="Fallback summary">
<meta name="keywords" content="cricket, , world cup ,final">
<meta property="article:published_time" content="2024-03-05T10:15:00+05:30">
<meta name="author" content="Jane Doe">
</head><body>
<h1>Final Over Drama</h1>
<article><p>First paragraph.</p><script>var x = 1;</script><p>Second paragraph.</p></article>
</body></html>`

	rec, err := New().Extract(html, "https://example.com/sports/final-over-drama")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/sports/final-over-drama", rec.URL)
	assert.Equal(t, "Final Over Drama", rec.Title)
	assert.Equal(t, "2024-03-05T10:15:00+05:30", rec.Date)
	assert.Equal(t, "Jane Doe", rec.Author)
	assert.Equal(t, "Short summary", rec.Description)
	assert.Equal(t, []string{"cricket", "world cup", "final"}, rec.Tags)
	assert.Equal(t, "First paragraph.Second paragraph.", rec.Content)
	assert.NotContains(t, rec.Content, "var x")
	assert.Contains(t, rec.ContentHTML, "<p>First paragraph.</p>")
	// URL heuristic: "sports" is a word longer than three letters.
	assert.Equal(t, "Sports", rec.Category)
}

func TestCategory_BreadcrumbBeatsMetaSection(t *testing.T) {
	html := `<html><head>
<meta property="article:section" content="Politics">
<script type="application/ld+json">
{"@context":"https://schema.org","@type":"BreadcrumbList","itemListElement":[
 {"@type":"ListItem","position":3,"item":{"name":"Cricket"}},
 {"@type":"ListItem","position":1,"item":{"name":"Home"}},
 {"@type":"ListItem","position":2,"item":{"name":"Sports"}}
]}
</script>
</head><body><h1>x</h1></body></html>`

	doc := mustDoc(t, html, "https://example.com/politics/story")
	assert.Equal(t, "Sports", CategoryStrategies.Run(doc, "category"))
}

func TestCategory_ArticleSection(t *testing.T) {
	html := `<script type="application/ld+json">
{"@graph":[{"@type":"WebPage"},{"@type":"NewsArticle","articleSection":["Business","Markets"]}]}
</script>`
	doc := mustDoc(t, html, "")
	assert.Equal(t, "Business", CategoryStrategies.Run(doc, "category"))
}

func TestCategory_SingleCrumb(t *testing.T) {
	html := `<script type="application/ld+json">
{"@type":"BreadcrumbList","itemListElement":[{"position":1,"name":"World"}]}
</script>`
	doc := mustDoc(t, html, "")
	assert.Equal(t, "World", BreadcrumbCategory(doc))
}

func TestURLPathCategory(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/technology/ai-story", "Technology"},
		{"https://example.com/news/india/story", "India"},
		{"https://example.com/2024/05/story", ""},
		{"https://example.com/tv/show", "Show"},
		{"https://example.com/news/123", ""},
		{"https://example.com/", ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			doc := mustDoc(t, "<html></html>", tt.url)
			assert.Equal(t, tt.want, URLPathCategory(doc))
		})
	}
}

func TestBreadcrumbText(t *testing.T) {
	doc := mustDoc(t, `<div class="breadcrumbs">Home &gt; Entertainment &gt; Movies</div>`, "")
	assert.Equal(t, "Entertainment", BreadcrumbText(doc))
}

func TestAuthor_StructuredDataVariants(t *testing.T) {
	tests := []struct {
		name   string
		author string
		want   string
	}{
		{"string", `"Jane Doe"`, "Jane Doe"},
		{"object", `{"@type":"Person","name":"Jane Doe"}`, "Jane Doe"},
		{"array", `[{"name":"Jane Doe"},"John Roe",{"url":"x"}]`, "Jane Doe, John Roe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := `<script type="application/ld+json">{"@type":"NewsArticle","author":` + tt.author + `}</script>`
			doc := mustDoc(t, html, "")
			assert.Equal(t, tt.want, AuthorStrategies.Run(doc, "author"))
		})
	}
}

func TestAuthor_Fallbacks(t *testing.T) {
	t.Run("class", func(t *testing.T) {
		doc := mustDoc(t, `<div class="post-author-name"> Jane  Doe </div>`, "")
		assert.Equal(t, "Jane Doe", AuthorStrategies.Run(doc, "author"))
	})
	t.Run("byline", func(t *testing.T) {
		doc := mustDoc(t, `<span itemprop="author">John Roe</span>`, "")
		assert.Equal(t, "John Roe", AuthorStrategies.Run(doc, "author"))
	})
	t.Run("by pattern", func(t *testing.T) {
		doc := mustDoc(t, `<p>Some long introduction paragraph that is not a byline at all.</p><p>By Jane Doe</p>`, "")
		assert.Equal(t, "Jane Doe", AuthorStrategies.Run(doc, "author"))
	})
	t.Run("by pattern counts characters", func(t *testing.T) {
		doc := mustDoc(t, `<p>By Þórður Ólafsdóttir Ásgeirsdóttir Ævarsdóttir</p>`, "")
		assert.Equal(t, "Þórður Ólafsdóttir Ásgeirsdóttir Ævarsdóttir", ByPattern(doc))
	})
}

func TestMalformedStructuredDataIsSkipped(t *testing.T) {
	html := `<head>
<script type="application/ld+json">{"@type": "NewsArticle", broken</script>
<script type="application/ld+json">{"@type":"NewsArticle","datePublished":"2024-01-02T03:04:05Z","author":{"name":"Ann"}}</script>
</head>`
	doc := mustDoc(t, html, "")
	require.Len(t, doc.Entities(), 1)
	assert.Equal(t, KindArticle, doc.Entities()[0].Kind)

	rec := New().ExtractDocument(doc, "")
	assert.Equal(t, "2024-01-02T03:04:05Z", rec.Date)
	assert.Equal(t, "Ann", rec.Author)
}

func TestDate_VideoUploadDate(t *testing.T) {
	html := `<script type="application/ld+json">{"@type":"VideoObject","uploadDate":"2024-02-10T08:00:00Z"}</script>`
	doc := mustDoc(t, html, "")
	assert.Equal(t, "2024-02-10T08:00:00Z", StructuredDataDate(doc))

	html = `<script type="application/ld+json">{"@type":"WebPage","uploadDate":"2024-02-10T08:00:00Z"}</script>`
	doc = mustDoc(t, html, "")
	assert.Empty(t, StructuredDataDate(doc))
}

func TestDate_LabelledText(t *testing.T) {
	doc := mustDoc(t, `<div><span>Published: unknown</span></div>`, "")
	assert.Empty(t, LabelledDate(doc))

	doc = mustDoc(t, `<p>Updated: 2024-03-03</p>`, "")
	assert.Equal(t, "2024-03-03", LabelledDate(doc))
	assert.Equal(t, "2024-03-03T00:00:00", New().ExtractDocument(doc, "").Date)
}

func TestDate_UnparsableMetaYieldsEmpty(t *testing.T) {
	doc := mustDoc(t, `<meta property="article:published_time" content="not a date at all zzz">`, "")
	assert.Empty(t, New().ExtractDocument(doc, "").Date)
}

func TestCascade_PanicFallsThrough(t *testing.T) {
	c := Cascade{
		func(*Document) string { panic("boom") },
		func(*Document) string { return "  second  " },
	}
	assert.Equal(t, "second", c.Run(mustDoc(t, "", ""), "test"))
}

func TestContent_Tiers(t *testing.T) {
	doc := mustDoc(t, `<main>Main body</main>`, "")
	assert.Equal(t, "Main body", ContentStrategies.Run(doc, "content"))

	doc = mustDoc(t, `<div class="story-content">Story <style>p{}</style>text</div>`, "")
	assert.Equal(t, "Story text", ContentStrategies.Run(doc, "content"))
	assert.Contains(t, contentHTML(doc), "Story")
}

func TestNormalize(t *testing.T) {
	for _, in := range []string{"", "  a  b\n\tc ", "already clean", " x "} {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}
	assert.Equal(t, "a b c", Normalize("  a  b\n\tc "))
}
