package output

import (
	"fmt"

	"github.com/law-makers/harvest/pkg/models"
	"github.com/xuri/excelize/v2"
)

const recordsSheet = "Records"

// SaveXLSX writes a workbook with one row per record and the source URL in
// the document properties.
func SaveXLSX(records []*models.CrawlRecord, sourceURL, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", recordsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := setRow(f, 1, tabularHeader); err != nil {
		return err
	}
	for i, r := range records {
		if err := setRow(f, i+2, tabularRow(r)); err != nil {
			return err
		}
	}

	if err := f.SetPanes(recordsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:       "Crawl results",
		Description: sourceURL,
		Creator:     "harvest",
	}); err != nil {
		return fmt.Errorf("failed to set document properties: %w", err)
	}

	return f.SaveAs(path)
}

func setRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	vals := make([]interface{}, len(values))
	for i, v := range values {
		vals[i] = v
	}
	if err := f.SetSheetRow(recordsSheet, cell, &vals); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
