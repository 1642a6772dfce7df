package output

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// CleanHTML removes unwanted elements and attributes to produce a safe HTML excerpt
func CleanHTML(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	// Remove unwanted tags
	doc.Find("script, style, link, meta, noscript, iframe, svg, form, input, button, select, textarea, canvas, aside, nav").Remove()

	// Clean attributes
	doc.Find("*").Each(func(i int, s *goquery.Selection) {
		for _, node := range s.Nodes {
			node.Attr = keptAttrs(node)
		}
	})

	htmlStr, err := doc.Find("body").Html()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(htmlStr), nil
}

func keptAttrs(node *html.Node) []html.Attribute {
	var kept []html.Attribute
	for _, attr := range node.Attr {
		switch node.Data {
		case "a":
			if attr.Key == "href" || attr.Key == "title" {
				kept = append(kept, attr)
			}
		case "img":
			if attr.Key == "src" || attr.Key == "alt" || attr.Key == "title" {
				kept = append(kept, attr)
			}
		}
	}
	return kept
}
