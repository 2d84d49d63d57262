package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"fieldreport/api/internal/sheet"
)

func TestFetchRowsBareArray(t *testing.T) {
	var gotUsername string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUsername = r.URL.Query().Get("username")
		w.Write([]byte(`[["alice","2024-01-02","A team"],["alice","2024-01-03","B team"]]`))
	}))
	defer server.Close()

	client := New(server.URL, 0)
	rows, err := client.FetchRows(context.Background(), "alice")
	if err != nil {
		t.Fatalf("FetchRows: %v", err)
	}
	if gotUsername != "alice" {
		t.Errorf("expected username query alice, got %q", gotUsername)
	}
	if len(rows) != 2 || rows[0][2] != "A team" {
		t.Errorf("unexpected rows: %v", rows)
	}
}

func TestFetchRowsDataEnvelopeAndNumericCells(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[["alice","2024-01-02",3,2.5,null]]}`))
	}))
	defer server.Close()

	rows, err := New(server.URL, 0).FetchRows(context.Background(), "alice")
	if err != nil {
		t.Fatalf("FetchRows: %v", err)
	}
	want := sheet.Row{"alice", "2024-01-02", "3", "2.5", ""}
	if len(rows) != 1 || len(rows[0]) != len(want) {
		t.Fatalf("unexpected rows: %v", rows)
	}
	for i := range want {
		if rows[0][i] != want[i] {
			t.Errorf("cell %d: got %q want %q", i, rows[0][i], want[i])
		}
	}
}

func TestFetchRowsMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>Apps Script error page</html>`))
	}))
	defer server.Close()

	_, err := New(server.URL, 0).FetchRows(context.Background(), "alice")
	var upErr *Error
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if upErr.Status != http.StatusOK {
		t.Errorf("expected status 200 in error, got %d", upErr.Status)
	}
	if upErr.Snippet == "" {
		t.Error("expected body snippet for diagnosis")
	}
}

func TestAppendRowsSuccess(t *testing.T) {
	var gotAction string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Action string      `json:"action"`
			Rows   []sheet.Row `json:"rows"`
		}
		if err := jsonDecode(r, &body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotAction = body.Action
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	err := New(server.URL, 0).AppendRows(context.Background(), []sheet.Row{{"alice", "x"}})
	if err != nil {
		t.Fatalf("AppendRows: %v", err)
	}
	if gotAction != "append" {
		t.Errorf("expected action append, got %q", gotAction)
	}
}

func TestReplaceRowsCarriesReportCode(t *testing.T) {
	var gotCode string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Action     string `json:"action"`
			ReportCode string `json:"reportCode"`
		}
		if err := jsonDecode(r, &body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotCode = body.ReportCode
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	err := New(server.URL, 0).ReplaceRows(context.Background(), "RPT-X", []sheet.Row{{"alice"}})
	if err != nil {
		t.Fatalf("ReplaceRows: %v", err)
	}
	if gotCode != "RPT-X" {
		t.Errorf("expected reportCode RPT-X, got %q", gotCode)
	}
}

func TestPostUpstreamFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	err := New(server.URL, 0).AppendRows(context.Background(), []sheet.Row{{"alice"}})
	var upErr *Error
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if upErr.Status != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", upErr.Status)
	}
}

func TestPostSuccessFalse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":"sheet locked"}`))
	}))
	defer server.Close()

	err := New(server.URL, 0).AppendRows(context.Background(), []sheet.Row{{"alice"}})
	var upErr *Error
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if upErr.Reason != "reported failure" {
		t.Errorf("unexpected reason %q", upErr.Reason)
	}
}
