package sheet

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestSanitizePinsIdentity(t *testing.T) {
	rows := []Row{
		{"mallory", "2024-03-07", "Team A"},
		{"", "2024-03-08", "Team B"},
	}

	clean, err := Sanitize(rows, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, row := range clean {
		if row[0] != "alice" {
			t.Fatalf("row %d: identity cell = %q, want alice", i, row[0])
		}
	}
}

func TestSanitizeEscapesAndClamps(t *testing.T) {
	long := strings.Repeat("字", MaxCellLen+200)
	rows := []Row{
		{"alice", "<script>alert(1)</script>", long},
	}

	clean, err := Sanitize(rows, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clean[0][1] != "&lt;script&gt;alert(1)&lt;/script&gt;" {
		t.Fatalf("escaped cell = %q", clean[0][1])
	}
	if got := len([]rune(clean[0][2])); got != MaxCellLen {
		t.Fatalf("clamped cell has %d runes, want %d", got, MaxCellLen)
	}
	if !strings.HasPrefix(clean[0][2], "字") {
		t.Fatalf("clamp corrupted multibyte text: %q", clean[0][2][:12])
	}
}

func TestSanitizeEmptyBatch(t *testing.T) {
	if _, err := Sanitize(nil, "alice"); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("nil batch: got %v, want ErrEmptyBatch", err)
	}
	if _, err := Sanitize([]Row{}, "alice"); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("empty batch: got %v, want ErrEmptyBatch", err)
	}
}

func TestSanitizeEmptyRowFailsBatch(t *testing.T) {
	rows := []Row{
		{"alice", "ok"},
		{},
	}
	if _, err := Sanitize(rows, "alice"); err == nil {
		t.Fatal("expected error for empty row")
	}
}

func TestSanitizeDoesNotMutateInput(t *testing.T) {
	rows := []Row{{"mallory", "<b>"}}
	original := []Row{{"mallory", "<b>"}}

	if _, err := Sanitize(rows, "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(rows, original) {
		t.Fatalf("input mutated: %v", rows)
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	rows := []Row{{"alice", "1 < 2 and 3 > 2", "plain"}}

	once, err := Sanitize(rows, "alice")
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	twice, err := Sanitize(once, "alice")
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("not idempotent:\nonce:  %v\ntwice: %v", once, twice)
	}
}
