package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"fieldreport/api/internal/archive"
	"fieldreport/api/internal/auth"
	"fieldreport/api/internal/authpw"
	"fieldreport/api/internal/config"
	"fieldreport/api/internal/export"
	"fieldreport/api/internal/search"
	"fieldreport/api/internal/session"
	"fieldreport/api/internal/sheet"
	"fieldreport/api/internal/store"
	"fieldreport/api/internal/upstream"
)

// Session is the resolved identity behind a bearer token.
type Session struct {
	Token     string
	UserID    string
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type sessionStore interface {
	SaveSession(ctx context.Context, tokenHash string, data session.Data, expiresAt time.Time) error
	LookupSession(ctx context.Context, tokenHash string) (session.Data, error)
	RevokeSession(ctx context.Context, tokenHash string) error
}

type dataStore interface {
	InsertSubmission(ctx context.Context, sub store.Submission) error
	ListSubmissions(ctx context.Context, username string, limit int) ([]store.Submission, error)
	Ping(ctx context.Context) error
}

type rowForwarder interface {
	FetchRows(ctx context.Context, username string) ([]sheet.Row, error)
	AppendRows(ctx context.Context, rows []sheet.Row) error
	ReplaceRows(ctx context.Context, reportCode string, rows []sheet.Row) error
}

type searcher interface {
	Search(q search.Query) search.Response
	IndexSubmission(rec search.SubmissionRecord)
}

type snapshotArchiver interface {
	StoreSnapshot(ctx context.Context, username, reportCode string, payload []byte) error
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions sessionStore
	accounts *authpw.Service
	upstream rowForwarder
	search   searcher
	archive  snapshotArchiver
}

// New wires the service with Postgres-backed sessions. fwd may be nil
// when the spreadsheet endpoint is unconfigured; searchSvc and archiver
// may be nil when those backends are disabled.
func New(cfg config.Config, dataStore *store.PostgresStore, accounts *authpw.Service, fwd *upstream.Client, searchSvc *search.Service, archiver *archive.MinioArchive) *Service {
	return newService(cfg, dataStore, dataStore, accounts, fwd, searchSvc, archiver)
}

// NewWithSessionStore wires the service with Redis-backed sessions.
func NewWithSessionStore(cfg config.Config, dataStore *store.PostgresStore, sessions *session.RedisStore, accounts *authpw.Service, fwd *upstream.Client, searchSvc *search.Service, archiver *archive.MinioArchive) *Service {
	return newService(cfg, dataStore, sessions, accounts, fwd, searchSvc, archiver)
}

// newService leaves optional fields nil rather than wrapping nil
// pointers in non-nil interfaces.
func newService(cfg config.Config, data dataStore, sessions sessionStore, accounts *authpw.Service, fwd *upstream.Client, searchSvc *search.Service, archiver *archive.MinioArchive) *Service {
	s := &Service{
		cfg:      cfg,
		store:    data,
		sessions: sessions,
		accounts: accounts,
	}
	if fwd != nil {
		s.upstream = fwd
	}
	if searchSvc != nil {
		s.search = searchSvc
	}
	if archiver != nil {
		s.archive = archiver
	}
	return s
}

// Register creates a new account.
func (s *Service) Register(ctx context.Context, username, password string) (store.User, error) {
	return s.accounts.Register(ctx, username, password)
}

// Login verifies credentials and issues an opaque session token.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	user, err := s.accounts.SignIn(ctx, username, password)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	token, err := auth.NewSessionToken()
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}

	now := time.Now()
	expiresAt := now.Add(s.cfg.SessionTTL)
	data := session.Data{
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: now,
	}
	if err := s.sessions.SaveSession(ctx, auth.HashToken(token), data, expiresAt); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}, nil
}

// SessionFromToken resolves a bearer token to its session. Malformed
// tokens are rejected before any store lookup. Absence, expiry, and
// lookup failure all collapse to the same unauthorized signal so a
// caller cannot probe which tokens ever existed.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	if !auth.WellFormed(token) {
		return Session{}, auth.ErrInvalidToken
	}

	data, err := s.sessions.LookupSession(ctx, auth.HashToken(token))
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			log.Printf("session: lookup failed: %v", err)
		}
		return Session{}, auth.ErrInvalidToken
	}

	return Session{
		Token:     token,
		UserID:    data.UserID,
		Username:  data.Username,
		CreatedAt: data.CreatedAt,
	}, nil
}

// Logout revokes the presented token. Unknown and malformed tokens are
// not an error; logout always succeeds from the caller's point of view.
func (s *Service) Logout(ctx context.Context, token string) {
	if !auth.WellFormed(token) {
		return
	}
	if err := s.sessions.RevokeSession(ctx, auth.HashToken(token)); err != nil {
		log.Printf("session: revoke failed: %v", err)
	}
}

func (s *Service) forwarder() (rowForwarder, error) {
	if s.upstream == nil {
		return nil, domainError(http.StatusInternalServerError, "UPSTREAM_NOT_CONFIGURED",
			"Upstream spreadsheet endpoint is not configured", nil)
	}
	return s.upstream, nil
}

// FetchRows returns the caller's rows from the upstream store,
// optionally filtered to one report code. The identity always comes
// from the session, never from request input.
func (s *Service) FetchRows(ctx context.Context, sess Session, reportCode string) ([]sheet.Row, error) {
	fwd, err := s.forwarder()
	if err != nil {
		return nil, err
	}

	rows, err := fwd.FetchRows(ctx, sess.Username)
	if err != nil {
		return nil, err
	}

	if reportCode == "" {
		return rows, nil
	}

	filtered := make([]sheet.Row, 0, len(rows))
	for _, row := range rows {
		layout, err := sheet.LayoutForWidth(len(row))
		if err != nil {
			return nil, malformedRows(err)
		}
		if row[layout.ReportCodeIndex()] == reportCode {
			filtered = append(filtered, row)
		}
	}
	return filtered, nil
}

// GroupedReports returns the caller's rows collapsed into logical
// reports, one per report code.
func (s *Service) GroupedReports(ctx context.Context, sess Session) ([]sheet.GroupedReport, error) {
	rows, err := s.FetchRows(ctx, sess, "")
	if err != nil {
		return nil, err
	}
	grouped, err := sheet.GroupRows(rows)
	if err != nil {
		return nil, malformedRows(err)
	}
	return grouped, nil
}

// CreateReport sanitizes the submitted rows and appends them upstream.
func (s *Service) CreateReport(ctx context.Context, sess Session, rows []sheet.Row) error {
	fwd, err := s.forwarder()
	if err != nil {
		return err
	}

	clean, err := sheet.Sanitize(rows, sess.Username)
	if err != nil {
		return domainError(http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	}

	appendErr := fwd.AppendRows(ctx, clean)
	s.recordSubmission(ctx, sess, "append", clean, appendErr)
	return appendErr
}

// UpdateReport sanitizes the submitted rows and replaces the full row
// set for one report code upstream. A missing report code fails before
// any upstream call.
func (s *Service) UpdateReport(ctx context.Context, sess Session, reportCode string, rows []sheet.Row) error {
	if strings.TrimSpace(reportCode) == "" {
		return domainError(http.StatusBadRequest, "VALIDATION_ERROR", "reportCode is required", nil)
	}

	fwd, err := s.forwarder()
	if err != nil {
		return err
	}

	clean, err := sheet.Sanitize(rows, sess.Username)
	if err != nil {
		return domainError(http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	}

	replaceErr := fwd.ReplaceRows(ctx, reportCode, clean)
	s.recordSubmission(ctx, sess, "updateByCode", clean, replaceErr)
	return replaceErr
}

// recordSubmission writes the audit record for one upstream write,
// successful or not, then feeds the search index and the snapshot
// archive. Audit failures are logged, never surfaced; the upstream
// write already happened.
func (s *Service) recordSubmission(ctx context.Context, sess Session, action string, rows []sheet.Row, upstreamErr error) {
	status := http.StatusOK
	var upErr *upstream.Error
	if errors.As(upstreamErr, &upErr) {
		status = upErr.Status
	} else if upstreamErr != nil {
		status = 0
	}

	snapshot, err := json.Marshal(rows)
	if err != nil {
		log.Printf("audit: marshal snapshot: %v", err)
		return
	}

	sub := store.Submission{
		ID:             uuid.NewString(),
		Username:       sess.Username,
		ReportCode:     reportCodeOf(rows),
		Action:         action,
		RowCount:       len(rows),
		UpstreamStatus: status,
		Snapshot:       string(snapshot),
		CreatedAt:      time.Now(),
	}
	if err := s.store.InsertSubmission(ctx, sub); err != nil {
		log.Printf("audit: insert submission: %v", err)
		return
	}

	if s.search != nil {
		s.search.IndexSubmission(search.SubmissionRecord{
			ID:          sub.ID,
			Username:    sub.Username,
			ReportCode:  sub.ReportCode,
			Action:      sub.Action,
			Snapshot:    sub.Snapshot,
			CreatedAtMs: sub.CreatedAt.UnixMilli(),
		})
	}

	if s.archive != nil && upstreamErr == nil {
		if err := s.archive.StoreSnapshot(ctx, sub.Username, sub.ReportCode, snapshot); err != nil {
			log.Printf("archive: store snapshot: %v", err)
		}
	}
}

// reportCodeOf reads the report code from the first row that carries
// one. Rows of one submission share a single code.
func reportCodeOf(rows []sheet.Row) string {
	for _, row := range rows {
		layout, err := sheet.LayoutForWidth(len(row))
		if err != nil {
			continue
		}
		if code := row[layout.ReportCodeIndex()]; code != "" {
			return code
		}
	}
	return ""
}

// SearchReports runs a full-text search over the caller's past
// submissions.
func (s *Service) SearchReports(ctx context.Context, sess Session, text string, limit, offset int) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: text}
	}
	return s.search.Search(search.Query{
		Text:     text,
		Username: sess.Username,
		Limit:    limit,
		Offset:   offset,
	})
}

// ExportReports renders the caller's rows as an xlsx workbook.
func (s *Service) ExportReports(ctx context.Context, sess Session) (*export.Result, error) {
	rows, err := s.FetchRows(ctx, sess, "")
	if err != nil {
		return nil, err
	}
	result, err := export.XLSXFromRows(sess.Username, rows, time.Now())
	if err != nil {
		if errors.Is(err, sheet.ErrUnknownWidth) {
			return nil, malformedRows(err)
		}
		return nil, fmt.Errorf("export xlsx: %w", err)
	}
	return result, nil
}

// Submissions returns the caller's recent audit records.
func (s *Service) Submissions(ctx context.Context, sess Session, limit int) ([]store.Submission, error) {
	return s.store.ListSubmissions(ctx, sess.Username, limit)
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// PingSessions checks the session backend when it is separate from the
// database.
func (s *Service) PingSessions(ctx context.Context) error {
	if pinger, ok := s.sessions.(interface{ Ping(context.Context) error }); ok {
		return pinger.Ping(ctx)
	}
	return nil
}

func malformedRows(err error) error {
	return domainError(http.StatusBadGateway, "UPSTREAM_MALFORMED",
		"Upstream returned rows with an unknown column layout", map[string]any{"reason": err.Error()})
}
