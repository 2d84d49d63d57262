package sheet

import (
	"strconv"
	"strings"
	"time"
)

// Row is one spreadsheet row: an ordered list of string cells whose positions
// are defined by a Layout.
type Row []string

// BasicInfo holds the columns shared by every row of one report.
type BasicInfo struct {
	Date       string `json:"date"`
	Team       string `json:"team"`
	Installer1 string `json:"installer1"`
	Installer2 string `json:"installer2"`
	Installer3 string `json:"installer3"`
	Installer4 string `json:"installer4"`
}

// CompletedCase carries the completed-installation fields as entered on the
// form. Counts stay numeric-as-string here; they are parsed on decode.
type CompletedCase struct {
	Address            string `json:"address"`
	ActualDuration     string `json:"actualDuration"`
	Difficulties       string `json:"difficulties"`
	MeasuringColleague string `json:"measuringColleague"`
	CustomerFeedback   string `json:"customerFeedback"`
	CustomerWitness    string `json:"customerWitness"`
	DoorsInstalled     string `json:"doorsInstalled"`
	WindowsInstalled   string `json:"windowsInstalled"`
	AluminumInstalled  string `json:"aluminumInstalled"`
	OldGrillesRemoved  string `json:"oldGrillesRemoved"`
}

// FollowUpCase carries the follow-up-visit fields as entered on the form.
type FollowUpCase struct {
	Address               string `json:"address"`
	Duration              string `json:"duration"`
	MaterialsCut          string `json:"materialsCut"`
	MaterialsSupplemented string `json:"materialsSupplemented"`
	Reorders              string `json:"reorders"`
	MeasuringColleague    string `json:"measuringColleague"`
	ReorderLocation       string `json:"reorderLocation"`
	Responsibility        string `json:"responsibility"`
	Urgency               string `json:"urgency"`
	Details               string `json:"details"`
	CustomerFeedback      string `json:"customerFeedback"`
	DoorsInstalled        string `json:"doorsInstalled"`
	WindowsInstalled      string `json:"windowsInstalled"`
	AluminumInstalled     string `json:"aluminumInstalled"`
	OldGrillesRemoved     string `json:"oldGrillesRemoved"`
}

// FormData is one logical report as submitted by the form: shared basic info
// plus any number of completed and follow-up cases.
type FormData struct {
	BasicInfo      BasicInfo       `json:"basicInfo"`
	CompletedCases []CompletedCase `json:"completedCases"`
	FollowUpCases  []FollowUpCase  `json:"followUpCases"`
	ReportCode     string          `json:"reportCode"`
}

// CaseKind tags what a decoded row represents. The tag is derived once at the
// decode boundary instead of re-checking which columns happen to be populated.
type CaseKind string

const (
	KindBasicOnly CaseKind = "basic"
	KindCompleted CaseKind = "completed"
	KindFollowUp  CaseKind = "followup"
)

// CompletedFields is the decoded completed-case half of a row, counts parsed.
type CompletedFields struct {
	Address            string `json:"address"`
	ActualDuration     string `json:"actualDuration"`
	Difficulties       string `json:"difficulties"`
	MeasuringColleague string `json:"measuringColleague"`
	CustomerFeedback   string `json:"customerFeedback"`
	CustomerWitness    string `json:"customerWitness"`
	DoorsInstalled     int    `json:"doorsInstalled"`
	WindowsInstalled   int    `json:"windowsInstalled"`
	AluminumInstalled  int    `json:"aluminumInstalled"`
	OldGrillesRemoved  int    `json:"oldGrillesRemoved"`
}

// FollowUpFields is the decoded follow-up half of a row, counts parsed.
type FollowUpFields struct {
	Address               string `json:"address"`
	Duration              string `json:"duration"`
	MaterialsCut          int    `json:"materialsCut"`
	MaterialsSupplemented int    `json:"materialsSupplemented"`
	Reorders              int    `json:"reorders"`
	MeasuringColleague    string `json:"measuringColleague"`
	ReorderLocation       string `json:"reorderLocation"`
	Responsibility        string `json:"responsibility"`
	Urgency               string `json:"urgency"`
	Details               string `json:"details"`
	CustomerFeedback      string `json:"customerFeedback"`
	DoorsInstalled        int    `json:"doorsInstalled"`
	WindowsInstalled      int    `json:"windowsInstalled"`
	AluminumInstalled     int    `json:"aluminumInstalled"`
	OldGrillesRemoved     int    `json:"oldGrillesRemoved"`
}

// Report is one decoded row.
type Report struct {
	Username   string           `json:"username"`
	Basic      BasicInfo        `json:"basicInfo"`
	Kind       CaseKind         `json:"kind"`
	Completed  *CompletedFields `json:"completed,omitempty"`
	FollowUp   *FollowUpFields  `json:"followUp,omitempty"`
	ReportCode string           `json:"reportCode"`
	CreatedAt  string           `json:"createdAt,omitempty"`
	UpdatedAt  string           `json:"updatedAt,omitempty"`
}

// GroupedReport is every row sharing one report code collapsed into a single
// logical report. The first row's basic info is canonical.
type GroupedReport struct {
	ReportCode     string            `json:"reportCode"`
	Basic          BasicInfo         `json:"basicInfo"`
	Completed      []CompletedFields `json:"completedCases"`
	FollowUps      []FollowUpFields  `json:"followUpCases"`
	CompletedCount int               `json:"completedCount"`
	FollowUpCount  int               `json:"followUpCount"`
	DisplayAddress string            `json:"displayAddress"`
	CreatedAt      string            `json:"createdAt,omitempty"`
	UpdatedAt      string            `json:"updatedAt,omitempty"`
}

// NewReportCode builds a report code from a timestamp, e.g. RPT-MB3K9QZC.
func NewReportCode(now time.Time) string {
	return "RPT-" + strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
}

// parseCount parses a numeric-as-string cell, defaulting to 0 for anything
// that is not an integer.
func parseCount(cell string) int {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return 0
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		if f, ferr := strconv.ParseFloat(trimmed, 64); ferr == nil {
			return int(f)
		}
		return 0
	}
	return n
}
