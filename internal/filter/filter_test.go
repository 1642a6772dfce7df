package filter

import (
	"testing"

	"github.com/law-makers/harvest/internal/datetime"
	"github.com/law-makers/harvest/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(t *testing.T, s string) *datetime.Timestamp {
	t.Helper()
	v, ok := datetime.Parse(s)
	require.True(t, ok, s)
	return &v
}

func TestAccepts_RequiresTitle(t *testing.T) {
	cfg := &models.CrawlConfig{MaxItems: 1}
	assert.False(t, Accepts(&models.CrawlRecord{}, cfg))
	assert.Equal(t, ReasonNoTitle, Reason(&models.CrawlRecord{}, cfg))
	assert.True(t, Accepts(&models.CrawlRecord{Title: "x"}, cfg))
}

func TestAccepts_Category(t *testing.T) {
	cfg := &models.CrawlConfig{Categories: []string{"Cricket", "tennis"}}

	tests := []struct {
		name string
		rec  models.CrawlRecord
		want bool
	}{
		{"category", models.CrawlRecord{Title: "x", Category: "Sports / CRICKET"}, true},
		{"tag", models.CrawlRecord{Title: "x", Tags: []string{"world", "Tennis Open"}}, true},
		{"title", models.CrawlRecord{Title: "Cricket final tonight"}, true},
		{"description", models.CrawlRecord{Title: "x", Description: "A tennis upset"}, true},
		{"none", models.CrawlRecord{Title: "Team Wins Title", Category: "Politics"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Accepts(&tt.rec, cfg))
		})
	}
}

func TestAccepts_HeadingOnlyRecordWithUnmatchedCategory(t *testing.T) {
	rec := &models.CrawlRecord{Title: "Team Wins Title", Tags: []string{}}
	assert.True(t, Accepts(rec, &models.CrawlConfig{}))
	assert.False(t, Accepts(rec, &models.CrawlConfig{Categories: []string{"finance"}}))
}

func TestAccepts_DateRange(t *testing.T) {
	cfg := &models.CrawlConfig{DateRange: models.DateRange{Start: ts(t, "2024-01-01")}}

	old := &models.CrawlRecord{Title: "x", Date: "2023-06-01T00:00:00Z"}
	assert.False(t, Accepts(old, cfg))
	assert.Equal(t, ReasonTooOld, Reason(old, cfg))

	assert.True(t, Accepts(&models.CrawlRecord{Title: "x", Date: "2024-01-01T00:00:00"}, cfg), "start is inclusive")
	assert.True(t, Accepts(&models.CrawlRecord{Title: "x", Date: ""}, cfg))
	assert.True(t, Accepts(&models.CrawlRecord{Title: "x", Date: "not a date zzz"}, cfg))

	cfg = &models.CrawlConfig{DateRange: models.DateRange{End: ts(t, "2024-01-31")}}
	newer := &models.CrawlRecord{Title: "x", Date: "2024-02-01T00:00:00"}
	assert.Equal(t, ReasonTooNew, Reason(newer, cfg))
	assert.True(t, Accepts(&models.CrawlRecord{Title: "x", Date: "2024-01-31T00:00:00"}, cfg))
}

func TestAccepts_NaiveBoundStripsRecordZone(t *testing.T) {
	// 2024-01-01T02:00+05:30 is 2023-12-31T20:30Z, but against a naive bound
	// only the wall clock counts.
	cfg := &models.CrawlConfig{DateRange: models.DateRange{Start: ts(t, "2024-01-01")}}
	assert.True(t, Accepts(&models.CrawlRecord{Title: "x", Date: "2024-01-01T02:00:00+05:30"}, cfg))

	cfg = &models.CrawlConfig{DateRange: models.DateRange{Start: ts(t, "2024-01-01T00:00:00Z")}}
	assert.False(t, Accepts(&models.CrawlRecord{Title: "x", Date: "2024-01-01T02:00:00+05:30"}, cfg))
}

func TestReason_DoesNotModifyRecord(t *testing.T) {
	rec := &models.CrawlRecord{Title: "x", Date: "2024-01-01T02:00:00+05:30", Tags: []string{"A"}}
	before := *rec
	Reason(rec, &models.CrawlConfig{Categories: []string{"a"}, DateRange: models.DateRange{Start: ts(t, "2025-01-01")}})
	assert.Equal(t, before, *rec)
}
