package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jonesrussell/north-cloud/permit-scraper/internal/domain"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/export"
)

func TestWriteXLSX(t *testing.T) {
	t.Parallel()

	rec := domain.NewRecord("https://permits.example.gov/", "fasttrack", domain.Jurisdiction{State: "Florida"})
	rec.DepartmentName = "Building Department"
	rec.ExtractedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rec.DownloadableApplications = domain.Downloads{
		{Title: "Permit Application", URL: "https://permits.example.gov/app.pdf"},
		{Title: "Fee Schedule Form", URL: "https://permits.example.gov/fees.pdf"},
	}

	var buf bytes.Buffer
	require.NoError(t, export.WriteXLSX(&buf, []*domain.Record{rec}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{export.SheetName}, f.GetSheetList())

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, export.Header, rows[0])
	assert.Equal(t, "https://permits.example.gov/", rows[1][0])
	assert.Equal(t, "Florida", rows[1][2])
	assert.Equal(t, "Building Department", rows[1][5])
	assert.Equal(t,
		"Permit Application: https://permits.example.gov/app.pdf\nFee Schedule Form: https://permits.example.gov/fees.pdf",
		rows[1][13])
	assert.Equal(t, "2025-03-01T12:00:00Z", rows[1][15])
}

func TestWriteXLSX_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, export.WriteXLSX(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
