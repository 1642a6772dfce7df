// Package datetime parses loosely formatted dates found in web pages and
// keeps track of whether the source carried a timezone.
package datetime

import (
	"strings"
	"time"

	dateparser "github.com/markusmobius/go-dateparser"
)

// Timestamp is a point in time that remembers whether it was zoned. Naive
// timestamps hold their wall clock in UTC.
type Timestamp struct {
	Time  time.Time
	Aware bool
}

const naiveLayout = "2006-01-02T15:04:05"

// naiveZone marks results the lenient parser produced without zone info.
var naiveZone = time.FixedZone("harvest/naive", 0)

var parserConfig = &dateparser.Configuration{
	Languages:       []string{"en"},
	DefaultTimezone: naiveZone,
}

var awareLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05Z0700",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	naiveLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Parse reads s as a date. Strict ISO-like layouts are tried first, then a
// lenient natural-language parser ("March 3, 2024 10:15 AM", "2 days ago").
func Parse(s string) (Timestamp, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, false
	}

	for _, layout := range awareLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t, Aware: true}, true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return Timestamp{Time: t}, true
		}
	}

	dt, err := dateparser.Parse(parserConfig, s)
	if err != nil || dt.Time.IsZero() {
		return Timestamp{}, false
	}
	if dt.Time.Location().String() == naiveZone.String() {
		return wall(dt.Time), true
	}
	return Timestamp{Time: dt.Time, Aware: true}, true
}

// Normalize parses s and renders it as ISO-8601, or "" when s is not a date.
func Normalize(s string) string {
	ts, ok := Parse(s)
	if !ok {
		return ""
	}
	return ts.ISO()
}

// ISO renders the timestamp as ISO-8601; naive values carry no offset.
func (t Timestamp) ISO() string {
	if t.Aware {
		return t.Time.Format(time.RFC3339)
	}
	return t.Time.Format(naiveLayout)
}

// Naive drops the zone and keeps the local wall clock.
func (t Timestamp) Naive() Timestamp {
	if !t.Aware {
		return t
	}
	return wall(t.Time)
}

// Before reports whether t is earlier than u.
func (t Timestamp) Before(u Timestamp) bool {
	return t.Time.Before(u.Time)
}

// After reports whether t is later than u.
func (t Timestamp) After(u Timestamp) bool {
	return t.Time.After(u.Time)
}

// String implements fmt.Stringer
func (t Timestamp) String() string {
	return t.ISO()
}

func wall(t time.Time) Timestamp {
	return Timestamp{
		Time: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC),
	}
}
