// Package export writes stored permit records to spreadsheets.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jonesrussell/north-cloud/permit-scraper/internal/domain"
)

// SheetName is the worksheet records are written to.
const SheetName = "Permit Offices"

// ContentType is the MIME type of WriteXLSX output.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Header is the first row of the sheet.
var Header = []string{
	"Source URL", "Platform", "State", "County", "City", "Department",
	"Processing Instructions", "Permit Fee", "Phone", "Email", "Address", "Hours",
	"Turnaround Time", "Applications", "Confidence", "Extracted At",
}

const columnWidth = 28

// WriteXLSX writes records as one row each below a bold header row.
func WriteXLSX(w io.Writer, records []*domain.Record) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(Header))
	if err != nil {
		return err
	}
	if styleErr := styleHeader(f, lastCol); styleErr != nil {
		return styleErr
	}

	for i, rec := range records {
		cell, cellErr := excelize.CoordinatesToCellName(1, i+2)
		if cellErr != nil {
			return cellErr
		}
		row := recordRow(rec)
		if rowErr := f.SetSheetRow(SheetName, cell, &row); rowErr != nil {
			return fmt.Errorf("write row %d: %w", i+2, rowErr)
		}
	}

	if _, err = f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func styleHeader(f *excelize.File, lastCol string) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err = f.SetCellStyle(SheetName, "A1", lastCol+"1", style); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err = f.SetColWidth(SheetName, "A", lastCol, columnWidth); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func recordRow(rec *domain.Record) []any {
	return []any{
		rec.SourceURL,
		rec.Platform,
		rec.State,
		rec.County,
		rec.City,
		rec.DepartmentName,
		rec.ProcessingInstructions,
		rec.PermitFee,
		rec.Phone,
		rec.Email,
		rec.Address,
		rec.Hours,
		rec.TurnaroundTime,
		formatDownloads(rec.DownloadableApplications),
		rec.Confidence,
		rec.ExtractedAt.UTC().Format(time.RFC3339),
	}
}

func formatDownloads(d domain.Downloads) string {
	lines := make([]string, 0, len(d))
	for _, dl := range d {
		lines = append(lines, dl.Title+": "+dl.URL)
	}
	return strings.Join(lines, "\n")
}
