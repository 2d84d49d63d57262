package auth

import (
	"strings"
	"testing"
)

func TestNewSessionTokenMatchesProfile(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		token, err := NewSessionToken()
		if err != nil {
			t.Fatalf("NewSessionToken: %v", err)
		}
		if !WellFormed(token) {
			t.Fatalf("generated token %q does not match its own profile", token)
		}
		if seen[token] {
			t.Fatalf("duplicate token generated: %q", token)
		}
		seen[token] = true
	}
}

func TestWellFormedRejectsMalformedTokens(t *testing.T) {
	valid := strings.Repeat("a", 64)
	cases := []struct {
		name  string
		token string
		want  bool
	}{
		{"valid all-a", valid, true},
		{"valid mixed hex", strings.Repeat("0f", 32), true},
		{"empty", "", false},
		{"too short", valid[:63], false},
		{"too long", valid + "a", false},
		{"uppercase hex", strings.Repeat("A", 64), false},
		{"non-hex", strings.Repeat("g", 64), false},
		{"embedded space", valid[:32] + " " + valid[:31], false},
		{"jwt shaped", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.sig", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WellFormed(tc.token); got != tc.want {
				t.Fatalf("WellFormed(%q) = %v, want %v", tc.token, got, tc.want)
			}
		})
	}
}

func TestHashTokenIsStableAndDistinct(t *testing.T) {
	a := HashToken("one")
	if a != HashToken("one") {
		t.Fatal("HashToken not deterministic")
	}
	if a == HashToken("two") {
		t.Fatal("distinct inputs hashed to the same value")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}
