package export

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"fieldreport/api/internal/sheet"
)

func cellValue(t *testing.T, f *excelize.File, col, row int) string {
	t.Helper()
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		t.Fatalf("cell name (%d,%d): %v", col, row, err)
	}
	v, err := f.GetCellValue(sheetName, name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return v
}

func TestXLSXAlignsLegacyRows(t *testing.T) {
	old := make(sheet.Row, sheet.LayoutV33.Width())
	old[0] = "alice"
	old[sheet.LayoutV33.ReportCodeIndex()] = "RPT-OLD"

	cur := make(sheet.Row, sheet.LayoutV35.Width())
	cur[0] = "alice"
	cur[32] = "2024-03-07T10:30:00Z"
	cur[33] = "2024-03-08T09:00:00Z"
	cur[sheet.LayoutV35.ReportCodeIndex()] = "RPT-NEW"

	res, err := XLSXFromRows("alice", []sheet.Row{old, cur}, time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	codeCol := sheet.LayoutV35.Width()
	if got := cellValue(t, f, codeCol, 1); got != "Report Code" {
		t.Fatalf("last header = %q, want %q", got, "Report Code")
	}

	// The 33-wide row carries no timestamps; its code still lands under
	// the Report Code header, not under Created At.
	if got := cellValue(t, f, codeCol, 2); got != "RPT-OLD" {
		t.Errorf("legacy report code = %q, want %q", got, "RPT-OLD")
	}
	if got := cellValue(t, f, 33, 2); got != "" {
		t.Errorf("legacy createdAt cell = %q, want blank", got)
	}
	if got := cellValue(t, f, 34, 2); got != "" {
		t.Errorf("legacy updatedAt cell = %q, want blank", got)
	}

	if got := cellValue(t, f, 33, 3); got != "2024-03-07T10:30:00Z" {
		t.Errorf("createdAt = %q", got)
	}
	if got := cellValue(t, f, 34, 3); got != "2024-03-08T09:00:00Z" {
		t.Errorf("updatedAt = %q", got)
	}
	if got := cellValue(t, f, codeCol, 3); got != "RPT-NEW" {
		t.Errorf("report code = %q, want %q", got, "RPT-NEW")
	}
}

func TestXLSXRejectsUnknownWidth(t *testing.T) {
	_, err := XLSXFromRows("alice", []sheet.Row{make(sheet.Row, 20)}, time.Now())
	if err == nil {
		t.Fatal("expected error for 20-cell row")
	}
	if !errors.Is(err, sheet.ErrUnknownWidth) {
		t.Fatalf("error = %v, want ErrUnknownWidth", err)
	}
}

func TestXLSXFilename(t *testing.T) {
	res, err := XLSXFromRows("alice", nil, time.Date(2024, 3, 8, 23, 59, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Filename != "reports-alice-20240308.xlsx" {
		t.Errorf("filename = %q", res.Filename)
	}
	if res.MimeType != xlsxMimeType {
		t.Errorf("mime = %q", res.MimeType)
	}
}
