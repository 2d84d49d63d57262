package store

import "time"

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Submission is one audit record of a create or update forwarded upstream.
// Snapshot holds the sanitized row payload as JSON for operator diagnosis and
// as the corpus for the Postgres search fallback.
type Submission struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	ReportCode     string    `json:"reportCode"`
	Action         string    `json:"action"` // "append" or "updateByCode"
	RowCount       int       `json:"rowCount"`
	UpstreamStatus int       `json:"upstreamStatus"`
	Snapshot       string    `json:"snapshot,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}
