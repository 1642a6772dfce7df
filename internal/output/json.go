package output

import (
	"encoding/json"
	"os"
	"time"

	"github.com/law-makers/harvest/pkg/models"
)

type jsonExport struct {
	Source      string                `json:"source"`
	GeneratedAt time.Time             `json:"generated_at"`
	Count       int                   `json:"count"`
	Records     []*models.CrawlRecord `json:"records"`
}

// SaveJSON writes an indented JSON document holding every record.
func SaveJSON(records []*models.CrawlRecord, sourceURL, path string) error {
	if records == nil {
		records = []*models.CrawlRecord{}
	}
	content, err := json.MarshalIndent(jsonExport{
		Source:      sourceURL,
		GeneratedAt: time.Now().UTC(),
		Count:       len(records),
		Records:     records,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, content, 0644)
}
