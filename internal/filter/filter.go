// Package filter decides whether an extracted record is kept.
package filter

import (
	"strings"

	"github.com/law-makers/harvest/internal/datetime"
	"github.com/law-makers/harvest/pkg/models"
)

// Reasons a record is rejected
const (
	ReasonNoTitle  = "no title"
	ReasonCategory = "no category match"
	ReasonTooOld   = "before start date"
	ReasonTooNew   = "after end date"
)

// Accepts reports whether rec passes cfg's category and date filters
func Accepts(rec *models.CrawlRecord, cfg *models.CrawlConfig) bool {
	return Reason(rec, cfg) == ""
}

// Reason returns why rec is rejected, or "" when it is accepted. It never
// modifies rec.
func Reason(rec *models.CrawlRecord, cfg *models.CrawlConfig) string {
	if !rec.Valid() {
		return ReasonNoTitle
	}
	if len(cfg.Categories) > 0 && !MatchesCategory(rec, cfg.Categories) {
		return ReasonCategory
	}
	return dateReason(rec.Date, cfg.DateRange)
}

// MatchesCategory reports whether any requested category appears, case
// insensitively, in the record's category, a tag, the title, or the
// description.
func MatchesCategory(rec *models.CrawlRecord, categories []string) bool {
	category := strings.ToLower(rec.Category)
	title := strings.ToLower(rec.Title)
	description := strings.ToLower(rec.Description)
	tags := make([]string, len(rec.Tags))
	for i, t := range rec.Tags {
		tags[i] = strings.ToLower(t)
	}

	for _, c := range categories {
		c = strings.ToLower(c)
		if strings.Contains(category, c) || strings.Contains(title, c) || strings.Contains(description, c) {
			return true
		}
		for _, t := range tags {
			if strings.Contains(t, c) {
				return true
			}
		}
	}
	return false
}

// dateReason checks date against the inclusive range. An empty or
// unparsable date passes.
func dateReason(date string, r models.DateRange) string {
	if date == "" || r.IsZero() {
		return ""
	}
	ts, ok := datetime.Parse(date)
	if !ok {
		return ""
	}
	if r.Start != nil && alignZone(ts, *r.Start).Before(*r.Start) {
		return ReasonTooOld
	}
	if r.End != nil && alignZone(ts, *r.End).After(*r.End) {
		return ReasonTooNew
	}
	return ""
}

// alignZone drops the zone of an aware date checked against a naive bound.
// A naive bound is never given a zone.
func alignZone(ts, bound datetime.Timestamp) datetime.Timestamp {
	if ts.Aware && !bound.Aware {
		return ts.Naive()
	}
	return ts
}
