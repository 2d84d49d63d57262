// Package export renders a user's report rows as a downloadable
// spreadsheet workbook.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"fieldreport/api/internal/sheet"
)

// Result contains the export output.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

const xlsxMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const sheetName = "Reports"

// headers follows the widest row layout. Legacy rows are realigned so that
// their trailing createdAt/updatedAt/report-code cells land under these
// headers, with the columns a layout lacks left blank.
var headers = []string{
	"Username", "Date", "Team",
	"Installer 1", "Installer 2", "Installer 3", "Installer 4",
	"Address", "Actual Duration", "Difficulties", "Measuring Colleague",
	"Customer Feedback", "Customer Witness", "Doors Installed",
	"Windows Installed", "Aluminum Installed", "Old Grilles Removed",
	"Follow-up Address", "Follow-up Duration", "Materials Cut",
	"Materials Supplemented", "Reorders", "Follow-up Measuring Colleague",
	"Reorder Location", "Responsibility", "Urgency", "Follow-up Details",
	"Follow-up Customer Feedback", "Follow-up Doors Installed",
	"Follow-up Windows Installed", "Follow-up Aluminum Installed",
	"Follow-up Old Grilles Removed",
	"Created At", "Updated At", "Report Code",
}

// XLSXFromRows builds a workbook with one header row and one row per
// sheet row, preserving cell text exactly as stored upstream.
func XLSXFromRows(username string, rows []sheet.Row, now time.Time) (*Result, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), sheetName)

	if err := writeRow(f, 1, headerCells()); err != nil {
		return nil, err
	}
	for i, row := range rows {
		cells, err := alignRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if err := writeRow(f, i+2, cells); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	return &Result{
		Data:     buf.Bytes(),
		Filename: fmt.Sprintf("reports-%s-%s.xlsx", username, now.UTC().Format("20060102")),
		MimeType: xlsxMimeType,
	}, nil
}

// alignRow places a row's cells under the widest layout's columns. The
// prefix columns are shared by every layout; createdAt, updatedAt, and the
// report code move to their fixed header positions.
func alignRow(row sheet.Row) ([]interface{}, error) {
	layout, err := sheet.LayoutForWidth(len(row))
	if err != nil {
		return nil, err
	}

	cells := make([]interface{}, sheet.DefaultLayout.Width())
	for i := range cells {
		cells[i] = ""
	}
	prefix := sheet.LayoutV33.ReportCodeIndex()
	for i := 0; i < prefix; i++ {
		cells[i] = row[i]
	}
	if idx, ok := layout.CreatedAtIndex(); ok {
		dst, _ := sheet.DefaultLayout.CreatedAtIndex()
		cells[dst] = row[idx]
	}
	if idx, ok := layout.UpdatedAtIndex(); ok {
		dst, _ := sheet.DefaultLayout.UpdatedAtIndex()
		cells[dst] = row[idx]
	}
	cells[sheet.DefaultLayout.ReportCodeIndex()] = row[layout.ReportCodeIndex()]
	return cells, nil
}

func headerCells() []interface{} {
	cells := make([]interface{}, len(headers))
	for i, h := range headers {
		cells[i] = h
	}
	return cells
}

func writeRow(f *excelize.File, rowNum int, cells []interface{}) error {
	start, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("row %d: %w", rowNum, err)
	}
	if err := f.SetSheetRow(sheetName, start, &cells); err != nil {
		return fmt.Errorf("row %d: %w", rowNum, err)
	}
	return nil
}
