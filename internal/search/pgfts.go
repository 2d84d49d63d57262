package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a
// fallback. It queries the submissions audit table directly.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search runs plainto_tsquery over the caller's submission snapshots,
// with ts_headline for snippets. The tsvector column uses the 'simple'
// configuration because snapshots mix languages and free-form values.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, `
		SELECT count(*)
		FROM submissions
		WHERE username = $1
		  AND snapshot_tsv @@ plainto_tsquery('simple', $2)
	`, q.Username, q.Text).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, report_code, action,
			ts_headline('simple', snapshot, plainto_tsquery('simple', $2),
				'MaxFragments=1,MaxWords=30,StartSel=<mark>,StopSel=</mark>') AS snippet,
			created_at
		FROM submissions
		WHERE username = $1
		  AND snapshot_tsv @@ plainto_tsquery('simple', $2)
		ORDER BY ts_rank(snapshot_tsv, plainto_tsquery('simple', $2)) DESC, created_at DESC
		LIMIT %d OFFSET %d`, limit, offset),
		q.Username, q.Text)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.ReportCode, &r.Action, &r.Snippet, &r.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns every submission as an indexable record, for
// full reindexing after Meilisearch recovers or on first boot.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]SubmissionRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, username, report_code, action, snapshot, created_at
		FROM submissions
	`)
	if err != nil {
		return nil, fmt.Errorf("load submissions: %w", err)
	}
	defer rows.Close()

	records := make([]SubmissionRecord, 0)
	for rows.Next() {
		var rec SubmissionRecord
		var createdAt sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.Username, &rec.ReportCode, &rec.Action, &rec.Snapshot, &createdAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		if createdAt.Valid {
			rec.CreatedAtMs = createdAt.Time.UnixMilli()
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return records, nil
}
