package extract

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// EntityKind is the closed set of structured-data shapes the extractor reads
type EntityKind int

const (
	KindOther EntityKind = iota
	KindBreadcrumbList
	KindArticle
	KindVideo
)

// String returns the string representation of the kind
func (k EntityKind) String() string {
	switch k {
	case KindBreadcrumbList:
		return "BreadcrumbList"
	case KindArticle:
		return "Article"
	case KindVideo:
		return "Video"
	default:
		return "Other"
	}
}

var articleTypes = map[string]bool{
	"Article":              true,
	"NewsArticle":          true,
	"ReportageNewsArticle": true,
}

// Crumb is one BreadcrumbList entry
type Crumb struct {
	Position int
	Name     string
}

// Entity is a JSON-LD object reduced to the fields the extractor uses.
// Has* flags record presence separately from value.
type Entity struct {
	Kind  EntityKind
	Types []string

	DatePublished string
	DateCreated   string
	UploadDate    string

	HasAuthor bool
	Authors   []string

	Sections []string
	Crumbs   []Crumb
}

// parseStructuredData reads every ld+json block in document order. A block
// that fails to parse is skipped.
func parseStructuredData(doc *goquery.Document) []Entity {
	var entities []Entity
	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		parsed, err := parseBlock([]byte(text))
		if err != nil {
			log.Debug().Err(err).Int("block", i).Msg("Skipping malformed structured data block")
			return
		}
		entities = append(entities, parsed...)
	})
	return entities
}

// parseBlock decodes one script body: an object, an array of objects, or an
// object with an @graph array.
func parseBlock(data []byte) ([]Entity, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	var out []Entity
	var walk func(msg json.RawMessage, depth int)
	walk = func(msg json.RawMessage, depth int) {
		if depth > 3 {
			return
		}
		switch firstByte(msg) {
		case '[':
			var items []json.RawMessage
			if json.Unmarshal(msg, &items) != nil {
				return
			}
			for _, item := range items {
				walk(item, depth+1)
			}
		case '{':
			var obj map[string]json.RawMessage
			if json.Unmarshal(msg, &obj) != nil {
				return
			}
			out = append(out, decodeEntity(obj))
			if graph, ok := obj["@graph"]; ok {
				walk(graph, depth+1)
			}
		}
	}
	walk(raw, 0)
	return out, nil
}

func decodeEntity(obj map[string]json.RawMessage) Entity {
	e := Entity{Types: stringList(obj["@type"])}
	for _, t := range e.Types {
		switch {
		case t == "BreadcrumbList":
			e.Kind = KindBreadcrumbList
		case articleTypes[t]:
			e.Kind = KindArticle
		case t == "VideoObject":
			e.Kind = KindVideo
		}
		if e.Kind != KindOther {
			break
		}
	}

	e.DatePublished = str(obj["datePublished"])
	e.DateCreated = str(obj["dateCreated"])
	e.UploadDate = str(obj["uploadDate"])

	if raw, ok := obj["author"]; ok {
		e.HasAuthor = true
		e.Authors = authorNames(raw)
	}
	if raw, ok := obj["articleSection"]; ok {
		e.Sections = stringList(raw)
	}
	if raw, ok := obj["itemListElement"]; ok {
		e.Crumbs = crumbs(raw)
	}
	return e
}

// authorNames accepts a string, an object with a name, or an array of either.
func authorNames(raw json.RawMessage) []string {
	switch firstByte(raw) {
	case '"':
		if s := Normalize(str(raw)); s != "" {
			return []string{s}
		}
	case '{':
		if s := Normalize(nameOf(raw)); s != "" {
			return []string{s}
		}
	case '[':
		var items []json.RawMessage
		if json.Unmarshal(raw, &items) != nil {
			return nil
		}
		var names []string
		for _, item := range items {
			var s string
			switch firstByte(item) {
			case '"':
				s = str(item)
			case '{':
				s = nameOf(item)
			}
			if s = Normalize(s); s != "" {
				names = append(names, s)
			}
		}
		return names
	}
	return nil
}

// crumbs reads ListItems sorted by position. A ListItem names itself either
// directly or through its nested item.
func crumbs(raw json.RawMessage) []Crumb {
	var items []map[string]json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return nil
	}
	out := make([]Crumb, 0, len(items))
	for _, item := range items {
		c := Crumb{Position: position(item["position"]), Name: str(item["name"])}
		if c.Name == "" && firstByte(item["item"]) == '{' {
			c.Name = nameOf(item["item"])
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func position(raw json.RawMessage) int {
	var n float64
	if json.Unmarshal(raw, &n) == nil {
		return int(n)
	}
	if p, err := strconv.Atoi(strings.TrimSpace(str(raw))); err == nil {
		return p
	}
	return 0
}

func nameOf(raw json.RawMessage) string {
	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) != nil {
		return ""
	}
	return str(obj["name"])
}

// str decodes a JSON string, returning "" for anything else.
func str(raw json.RawMessage) string {
	if firstByte(raw) != '"' {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// stringList accepts a string or an array of strings.
func stringList(raw json.RawMessage) []string {
	switch firstByte(raw) {
	case '"':
		if s := str(raw); s != "" {
			return []string{s}
		}
	case '[':
		var items []json.RawMessage
		if json.Unmarshal(raw, &items) != nil {
			return nil
		}
		var out []string
		for _, item := range items {
			if s := str(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func firstByte(raw json.RawMessage) byte {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}
