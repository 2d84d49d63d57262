package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fieldreport/api/internal/session"
)

// ErrUsernameTaken is returned when account creation collides with an
// existing username.
var ErrUsernameTaken = errors.New("username already registered")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO registered_users (id, username, password_hash)
		VALUES ($1, $2, $3)
	`, user.ID, user.Username, user.PasswordHash)
	if err != nil {
		// 23505 is unique_violation; the driver error text carries the code.
		if strings.Contains(err.Error(), "23505") || strings.Contains(err.Error(), "duplicate key") {
			return ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at
		FROM registered_users WHERE username = $1
	`, username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at
		FROM registered_users WHERE id = $1
	`, id).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// SaveSession stores a session binding in Postgres. Used when Redis is not
// configured.
func (s *PostgresStore) SaveSession(ctx context.Context, tokenHash string, data session.Data, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (token_hash, user_id, username, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (token_hash) DO UPDATE
			SET user_id=EXCLUDED.user_id, username=EXCLUDED.username,
			    expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, data.UserID, data.Username, expiresAt)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// LookupSession resolves a token hash to its binding. Missing, expired and
// revoked sessions are indistinguishable to the caller.
func (s *PostgresStore) LookupSession(ctx context.Context, tokenHash string) (session.Data, error) {
	var data session.Data
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, username, created_at
		FROM sessions
		WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > NOW()
	`, tokenHash).Scan(&data.UserID, &data.Username, &data.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Data{}, session.ErrNotFound
	}
	if err != nil {
		return session.Data{}, fmt.Errorf("lookup session: %w", err)
	}
	return data, nil
}

func (s *PostgresStore) RevokeSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertSubmission(ctx context.Context, sub Submission) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, username, report_code, action, row_count, upstream_status, snapshot)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, sub.ID, sub.Username, sub.ReportCode, sub.Action, sub.RowCount, sub.UpstreamStatus, sub.Snapshot)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// ListSubmissions returns the most recent audit records for one user.
func (s *PostgresStore) ListSubmissions(ctx context.Context, username string, limit int) ([]Submission, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, report_code, action, row_count, upstream_status, snapshot, created_at
		FROM submissions
		WHERE username = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, username, limit)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()
	return scanSubmissions(rows)
}

func scanSubmissions(rows *sql.Rows) ([]Submission, error) {
	var out []Submission
	for rows.Next() {
		var sub Submission
		if err := rows.Scan(&sub.ID, &sub.Username, &sub.ReportCode, &sub.Action,
			&sub.RowCount, &sub.UpstreamStatus, &sub.Snapshot, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}
