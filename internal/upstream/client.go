// Package upstream talks to the external spreadsheet-automation endpoint.
// Every proxy operation maps to exactly one outbound call; there are no
// retries and no caching.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"fieldreport/api/internal/sheet"
)

// snippetLen bounds how much of an upstream body is carried in an Error.
const snippetLen = 512

// maxResponseBytes bounds how much of an upstream response is read at all.
const maxResponseBytes = 8 << 20

// Error reports an upstream failure: a non-2xx status, an unparseable body,
// or an explicit success=false. Status and a truncated body snippet are kept
// for operator diagnosis.
type Error struct {
	Status  int
	Snippet string
	Reason  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream %s (status %d): %q", e.Reason, e.Status, e.Snippet)
}

// Client forwards requests to the spreadsheet endpoint.
type Client struct {
	endpoint string
	hc       *http.Client
}

// New creates a forwarder for the given endpoint URL. A zero timeout applies
// a 20 second default.
func New(endpoint string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		hc:       &http.Client{Timeout: timeout},
	}
}

// FetchRows reads every row belonging to username. The endpoint answers with
// either a bare array of rows or a {"data": [...]} envelope; both are
// accepted and cells are coerced to strings.
func (c *Client) FetchRows(ctx context.Context, username string) ([]sheet.Row, error) {
	fetchURL := c.endpoint + "?username=" + url.QueryEscape(username)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var raw [][]any
	if err := json.Unmarshal(body, &raw); err != nil {
		var envelope struct {
			Data [][]any `json:"data"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil || envelope.Data == nil {
			return nil, &Error{Status: status, Snippet: snippet(body), Reason: "returned malformed response"}
		}
		raw = envelope.Data
	}
	return sheet.CoerceRows(raw), nil
}

// AppendRows forwards an append of sanitized rows.
func (c *Client) AppendRows(ctx context.Context, rows []sheet.Row) error {
	return c.post(ctx, map[string]any{
		"action": "append",
		"rows":   rows,
	})
}

// ReplaceRows forwards a replace of every row carrying reportCode.
func (c *Client) ReplaceRows(ctx context.Context, reportCode string, rows []sheet.Row) error {
	return c.post(ctx, map[string]any{
		"action":     "updateByCode",
		"reportCode": reportCode,
		"rows":       rows,
	})
}

func (c *Client) post(ctx context.Context, payload map[string]any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode upstream payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return err
	}

	var result struct {
		Success *bool  `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &result); err != nil || result.Success == nil {
		return &Error{Status: status, Snippet: snippet(body), Reason: "returned malformed response"}
	}
	if !*result.Success {
		return &Error{Status: status, Snippet: snippet(body), Reason: "reported failure"}
	}
	return nil
}

// do executes the request and returns status and body, converting transport
// failures and non-2xx statuses to *Error.
func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("call upstream: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("read upstream response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, nil, &Error{Status: resp.StatusCode, Snippet: snippet(body), Reason: "request failed"}
	}
	return resp.StatusCode, body, nil
}

func snippet(body []byte) string {
	if len(body) > snippetLen {
		body = body[:snippetLen]
	}
	return string(body)
}
