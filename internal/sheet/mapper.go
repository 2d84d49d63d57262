package sheet

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var (
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	ymdPattern     = regexp.MustCompile(`^(\d{4})[/-](\d{1,2})[/-](\d{1,2})`)
	dmyPattern     = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})`)
)

// fallbackDateLayouts are tried in order when a date matches none of the
// explicit patterns. Sheet automation tends to emit RFC3339 timestamps.
var fallbackDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
}

// NormalizeDate canonicalises a date cell to YYYY-MM-DD for editing. Accepted
// inputs: ISO dates, YYYY/M/D, D/M/YYYY, Excel numeric date serials, and a few
// textual layouts. Anything unparseable normalises to the empty string.
func NormalizeDate(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	if isoDatePattern.MatchString(value) {
		return value
	}
	if m := ymdPattern.FindStringSubmatch(value); m != nil {
		return m[1] + "-" + pad2(m[2]) + "-" + pad2(m[3])
	}
	if m := dmyPattern.FindStringSubmatch(value); m != nil {
		return m[3] + "-" + pad2(m[2]) + "-" + pad2(m[1])
	}
	// Spreadsheet cells sometimes come back as raw Excel date serials.
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if serial >= 20000 && serial <= 80000 {
			if parsed, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return parsed.Format("2006-01-02")
			}
		}
		return ""
	}
	for _, layout := range fallbackDateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.Format("2006-01-02")
		}
	}
	return ""
}

func pad2(part string) string {
	if len(part) == 1 {
		return "0" + part
	}
	return part
}

// CellString renders a decoded JSON cell value as a string cell. Upstream
// responses carry numeric cells as JSON numbers; integral floats lose the
// trailing ".0" so counts survive a round trip.
func CellString(v any) string {
	switch cell := v.(type) {
	case nil:
		return ""
	case string:
		return cell
	case float64:
		if cell == float64(int64(cell)) {
			return strconv.FormatInt(int64(cell), 10)
		}
		return strconv.FormatFloat(cell, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(cell)
	default:
		return fmt.Sprint(cell)
	}
}

// CoerceRows converts decoded JSON rows into string-cell rows.
func CoerceRows(raw [][]any) []Row {
	rows := make([]Row, 0, len(raw))
	for _, rawRow := range raw {
		row := make(Row, len(rawRow))
		for i, cell := range rawRow {
			row[i] = CellString(cell)
		}
		rows = append(rows, row)
	}
	return rows
}

// ReportFromRow positionally decodes one row under the given layout. The case
// kind is tagged here, once, from which half of the case columns is populated.
func ReportFromRow(row Row, layout Layout) (Report, error) {
	if len(row) != layout.Width() {
		return Report{}, fmt.Errorf("row has %d cells, layout %d expects %d", len(row), layout, layout.Width())
	}

	report := Report{
		Username: row[colUsername],
		Basic: BasicInfo{
			Date:       row[colDate],
			Team:       row[colTeam],
			Installer1: row[colInstaller1],
			Installer2: row[colInstaller2],
			Installer3: row[colInstaller3],
			Installer4: row[colInstaller4],
		},
		ReportCode: row[layout.ReportCodeIndex()],
	}
	if idx, ok := layout.CreatedAtIndex(); ok {
		report.CreatedAt = row[idx]
	}
	if idx, ok := layout.UpdatedAtIndex(); ok {
		report.UpdatedAt = row[idx]
	}

	completed := CompletedFields{
		Address:            row[colAddress],
		ActualDuration:     row[colActualDuration],
		Difficulties:       row[colDifficulties],
		MeasuringColleague: row[colMeasuringColleague],
		CustomerFeedback:   row[colCustomerFeedback],
		CustomerWitness:    row[colCustomerWitness],
		DoorsInstalled:     parseCount(row[colDoorsInstalled]),
		WindowsInstalled:   parseCount(row[colWindowsInstalled]),
		AluminumInstalled:  parseCount(row[colAluminumInstalled]),
		OldGrillesRemoved:  parseCount(row[colOldGrillesRemoved]),
	}
	followUp := FollowUpFields{
		Address:               row[colFollowUpAddress],
		Duration:              row[colFollowUpDuration],
		MaterialsCut:          parseCount(row[colMaterialsCut]),
		MaterialsSupplemented: parseCount(row[colMaterialsSupplemented]),
		Reorders:              parseCount(row[colReorders]),
		MeasuringColleague:    row[colFollowUpMeasuringColleague],
		ReorderLocation:       row[colReorderLocation],
		Responsibility:        row[colResponsibility],
		Urgency:               row[colUrgency],
		Details:               row[colFollowUpDetails],
		CustomerFeedback:      row[colFollowUpCustomerFeedback],
		DoorsInstalled:        parseCount(row[colFollowUpDoorsInstalled]),
		WindowsInstalled:      parseCount(row[colFollowUpWindowsInstalled]),
		AluminumInstalled:     parseCount(row[colFollowUpAluminumInstalled]),
		OldGrillesRemoved:     parseCount(row[colFollowUpOldGrillesRemoved]),
	}

	switch {
	case completed.Address != "" || completed.DoorsInstalled > 0 || completed.WindowsInstalled > 0:
		report.Kind = KindCompleted
		report.Completed = &completed
	case followUp.Address != "" || followUp.DoorsInstalled > 0 || followUp.WindowsInstalled > 0:
		report.Kind = KindFollowUp
		report.FollowUp = &followUp
	default:
		report.Kind = KindBasicOnly
	}
	return report, nil
}

// hasCaseData reports whether a case is substantial enough to persist: any of
// address, doors or windows populated.
func hasCaseData(address, doors, windows string) bool {
	return strings.TrimSpace(address) != "" ||
		strings.TrimSpace(doors) != "" ||
		strings.TrimSpace(windows) != ""
}

// RowsFromForm flattens one logical report into rows under the given layout:
// one row per substantial completed case, one per substantial follow-up case,
// and exactly one basic-info-only row when neither list has one. Every report
// therefore persists at least one row.
func RowsFromForm(username string, form FormData, layout Layout, now time.Time) []Row {
	code := strings.TrimSpace(form.ReportCode)
	if code == "" {
		code = NewReportCode(now)
	}
	date := NormalizeDate(form.BasicInfo.Date)

	newRow := func() Row {
		row := make(Row, layout.Width())
		row[colUsername] = username
		row[colDate] = date
		row[colTeam] = form.BasicInfo.Team
		row[colInstaller1] = form.BasicInfo.Installer1
		row[colInstaller2] = form.BasicInfo.Installer2
		row[colInstaller3] = form.BasicInfo.Installer3
		row[colInstaller4] = form.BasicInfo.Installer4
		if idx, ok := layout.CreatedAtIndex(); ok {
			row[idx] = now.UTC().Format(time.RFC3339)
		}
		if idx, ok := layout.UpdatedAtIndex(); ok {
			row[idx] = now.UTC().Format(time.RFC3339)
		}
		row[layout.ReportCodeIndex()] = code
		return row
	}

	var rows []Row
	for _, c := range form.CompletedCases {
		if !hasCaseData(c.Address, c.DoorsInstalled, c.WindowsInstalled) {
			continue
		}
		row := newRow()
		row[colAddress] = c.Address
		row[colActualDuration] = c.ActualDuration
		row[colDifficulties] = c.Difficulties
		row[colMeasuringColleague] = c.MeasuringColleague
		row[colCustomerFeedback] = c.CustomerFeedback
		row[colCustomerWitness] = c.CustomerWitness
		row[colDoorsInstalled] = c.DoorsInstalled
		row[colWindowsInstalled] = c.WindowsInstalled
		row[colAluminumInstalled] = c.AluminumInstalled
		row[colOldGrillesRemoved] = c.OldGrillesRemoved
		rows = append(rows, row)
	}
	for _, f := range form.FollowUpCases {
		if !hasCaseData(f.Address, f.DoorsInstalled, f.WindowsInstalled) {
			continue
		}
		row := newRow()
		row[colFollowUpAddress] = f.Address
		row[colFollowUpDuration] = f.Duration
		row[colMaterialsCut] = f.MaterialsCut
		row[colMaterialsSupplemented] = f.MaterialsSupplemented
		row[colReorders] = f.Reorders
		row[colFollowUpMeasuringColleague] = f.MeasuringColleague
		row[colReorderLocation] = f.ReorderLocation
		row[colResponsibility] = f.Responsibility
		row[colUrgency] = f.Urgency
		row[colFollowUpDetails] = f.Details
		row[colFollowUpCustomerFeedback] = f.CustomerFeedback
		row[colFollowUpDoorsInstalled] = f.DoorsInstalled
		row[colFollowUpWindowsInstalled] = f.WindowsInstalled
		row[colFollowUpAluminumInstalled] = f.AluminumInstalled
		row[colFollowUpOldGrillesRemoved] = f.OldGrillesRemoved
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		rows = append(rows, newRow())
	}
	return rows
}

// GroupRows collapses rows sharing a report code into grouped reports,
// preserving first-seen order. Each row's layout is resolved from its own
// width so mixed-generation data reads correctly; a width no layout matches
// fails the whole set.
func GroupRows(rows []Row) ([]GroupedReport, error) {
	var order []string
	groups := make(map[string]*GroupedReport)

	for i, row := range rows {
		layout, err := LayoutForWidth(len(row))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		report, err := ReportFromRow(row, layout)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		group, ok := groups[report.ReportCode]
		if !ok {
			group = &GroupedReport{
				ReportCode: report.ReportCode,
				Basic:      report.Basic,
				CreatedAt:  report.CreatedAt,
				UpdatedAt:  report.UpdatedAt,
			}
			groups[report.ReportCode] = group
			order = append(order, report.ReportCode)
		}
		switch report.Kind {
		case KindCompleted:
			group.Completed = append(group.Completed, *report.Completed)
		case KindFollowUp:
			group.FollowUps = append(group.FollowUps, *report.FollowUp)
		}
	}

	grouped := make([]GroupedReport, 0, len(order))
	for _, code := range order {
		group := groups[code]
		group.CompletedCount = len(group.Completed)
		group.FollowUpCount = len(group.FollowUps)
		group.DisplayAddress = displayAddress(group)
		grouped = append(grouped, *group)
	}
	return grouped, nil
}

// displayAddress picks the address the dashboard shows for a grouped
// report: the first completed-case address, then the first follow-up one.
func displayAddress(group *GroupedReport) string {
	for _, c := range group.Completed {
		if c.Address != "" {
			return c.Address
		}
	}
	for _, f := range group.FollowUps {
		if f.Address != "" {
			return f.Address
		}
	}
	return ""
}
