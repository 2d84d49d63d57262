// Package sheet implements the row-oriented data model shared with the
// upstream spreadsheet: versioned column layouts, the row/report mapping in
// both directions, and submission sanitizing.
package sheet

import (
	"errors"
	"fmt"
)

// Layout identifies one of the column layouts the sheet has used. The value
// doubles as the row width, which is how legacy rows without a version marker
// are recognised on read.
type Layout int

const (
	// LayoutV33 is the original layout: username, basic info, completed-case
	// and follow-up-case columns, report code last.
	LayoutV33 Layout = 33
	// LayoutV34 appends a createdAt column before the report code.
	LayoutV34 Layout = 34
	// LayoutV35 appends createdAt and updatedAt columns before the report code.
	LayoutV35 Layout = 35
)

// Column indexes for the fixed prefix shared by every layout.
const (
	colUsername = 0
	colDate     = 1
	colTeam     = 2
	colInstaller1 = 3
	colInstaller2 = 4
	colInstaller3 = 5
	colInstaller4 = 6

	colAddress            = 7
	colActualDuration     = 8
	colDifficulties       = 9
	colMeasuringColleague = 10
	colCustomerFeedback   = 11
	colCustomerWitness    = 12
	colDoorsInstalled     = 13
	colWindowsInstalled   = 14
	colAluminumInstalled  = 15
	colOldGrillesRemoved  = 16

	colFollowUpAddress            = 17
	colFollowUpDuration           = 18
	colMaterialsCut               = 19
	colMaterialsSupplemented      = 20
	colReorders                   = 21
	colFollowUpMeasuringColleague = 22
	colReorderLocation            = 23
	colResponsibility             = 24
	colUrgency                    = 25
	colFollowUpDetails            = 26
	colFollowUpCustomerFeedback   = 27
	colFollowUpDoorsInstalled     = 28
	colFollowUpWindowsInstalled   = 29
	colFollowUpAluminumInstalled  = 30
	colFollowUpOldGrillesRemoved  = 31
)

// DefaultLayout is the layout used for newly written rows.
const DefaultLayout = LayoutV35

// ErrUnknownWidth marks a row width no layout can interpret.
var ErrUnknownWidth = errors.New("no column layout for row width")

// LayoutForWidth resolves the layout for a row width. Rows of any other width
// cannot be interpreted and are treated as a malformed upstream response
// rather than being misread under a guessed layout.
func LayoutForWidth(width int) (Layout, error) {
	switch width {
	case 33:
		return LayoutV33, nil
	case 34:
		return LayoutV34, nil
	case 35:
		return LayoutV35, nil
	}
	return 0, fmt.Errorf("%w %d", ErrUnknownWidth, width)
}

// Width returns the number of columns in the layout.
func (l Layout) Width() int {
	return int(l)
}

// ReportCodeIndex returns the index of the report code column, always the
// final column of the layout.
func (l Layout) ReportCodeIndex() int {
	return int(l) - 1
}

// CreatedAtIndex returns the createdAt column index. Only layouts 34 and 35
// carry one.
func (l Layout) CreatedAtIndex() (int, bool) {
	if l >= LayoutV34 {
		return 32, true
	}
	return 0, false
}

// UpdatedAtIndex returns the updatedAt column index. Only layout 35 carries one.
func (l Layout) UpdatedAtIndex() (int, bool) {
	if l >= LayoutV35 {
		return 33, true
	}
	return 0, false
}
