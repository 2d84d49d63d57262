package search

import "time"

// Result is a single search hit over a user's submitted reports.
type Result struct {
	ID         string    `json:"id"`
	ReportCode string    `json:"reportCode"`
	Action     string    `json:"action"`
	Snippet    string    `json:"snippet"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Query describes a search request. Username is always the signed-in
// user; results never cross account boundaries.
type Query struct {
	Text     string
	Username string
	Limit    int
	Offset   int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// SubmissionRecord is the data we index for one submission.
// CreatedAtMs is unix milliseconds so Meilisearch can sort on it.
type SubmissionRecord struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	ReportCode  string `json:"reportCode"`
	Action      string `json:"action"`
	Snapshot    string `json:"snapshot"`
	CreatedAtMs int64  `json:"createdAtMs"`
}
