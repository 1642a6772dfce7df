// Package discover finds candidate article links on a listing page.
package discover

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/law-makers/harvest/internal/browser"
)

// LinkScript collects every anchor href on the page along with the page's
// own location.
const LinkScript = `(() => ({
	href: window.location.href,
	origin: window.location.origin,
	links: Array.from(document.querySelectorAll('a[href]')).map(a => a.href),
}))()`

// MinExtraLength is how much longer than the current URL a link must be.
// Article URLs carry a slug; short links are mostly navigation.
const MinExtraLength = 10

// Blacklist holds substrings of links that never lead to articles.
var Blacklist = []string{
	"privacy", "terms", "policy", "about-us", "contact", "login", "signup",
	"subscribe", "rss", "archive", "newsletter", "preference", "advertisement",
	"correction", "syndication", "careers", "sitemap",
}

type pageLinks struct {
	Href   string   `json:"href"`
	Origin string   `json:"origin"`
	Links  []string `json:"links"`
}

// Discover returns the candidate links of the page's current document, in
// encounter order.
func Discover(ctx context.Context, page browser.Page) ([]string, error) {
	var res pageLinks
	if err := page.Evaluate(ctx, LinkScript, &res); err != nil {
		return nil, fmt.Errorf("failed to collect links: %w", err)
	}
	return Filter(res.Href, res.Origin, res.Links), nil
}

// Filter keeps same-origin links that are longer than current by more than
// MinExtraLength and match no Blacklist entry. Fragments are dropped and
// duplicates removed, first occurrence wins.
func Filter(current, origin string, links []string) []string {
	base, err := url.Parse(origin)
	if err != nil || base.Host == "" {
		return []string{}
	}
	seen := make(map[string]bool, len(links))
	out := make([]string, 0, len(links))
	for _, link := range links {
		if !sameOrigin(base, link) {
			continue
		}
		if len(link) <= len(current)+MinExtraLength {
			continue
		}
		if i := strings.IndexByte(link, '#'); i >= 0 {
			link = link[:i]
		}
		if seen[link] || blacklisted(link) {
			continue
		}
		seen[link] = true
		out = append(out, link)
	}
	return out
}

func sameOrigin(base *url.URL, link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, base.Scheme) && strings.EqualFold(u.Host, base.Host)
}

func blacklisted(link string) bool {
	lower := strings.ToLower(link)
	for _, b := range Blacklist {
		if strings.Contains(lower, b) {
			return true
		}
	}
	return false
}
