package output

import (
	"encoding/xml"
	"os"
	"time"

	"github.com/law-makers/harvest/pkg/models"
)

type xmlExport struct {
	XMLName     xml.Name              `xml:"crawl"`
	Source      string                `xml:"source,attr"`
	GeneratedAt time.Time             `xml:"generated_at,attr"`
	Records     []*models.CrawlRecord `xml:"record"`
}

// SaveXML writes records as <crawl><record>...</record></crawl>.
func SaveXML(records []*models.CrawlRecord, sourceURL, path string) error {
	content, err := xml.MarshalIndent(xmlExport{
		Source:      sourceURL,
		GeneratedAt: time.Now().UTC(),
		Records:     records,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte(xml.Header), append(content, '\n')...), 0644)
}
