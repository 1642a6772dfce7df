package output

import (
	"encoding/csv"
	"os"

	"github.com/law-makers/harvest/pkg/models"
)

// SaveCSV writes one row per record, with a header row. Tags are joined
// with ", ".
func SaveCSV(records []*models.CrawlRecord, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(tabularHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := writer.Write(tabularRow(r)); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}
