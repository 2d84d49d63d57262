package authpw

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"fieldreport/api/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// mockUserStore is an in-memory UserStore for testing.
type mockUserStore struct {
	users map[string]store.User // keyed by username
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[string]store.User)}
}

func (m *mockUserStore) CreateUser(ctx context.Context, user store.User) error {
	if _, ok := m.users[user.Username]; ok {
		return store.ErrUsernameTaken
	}
	m.users[user.Username] = user
	return nil
}

func (m *mockUserStore) GetUserByUsername(ctx context.Context, username string) (store.User, error) {
	if user, ok := m.users[username]; ok {
		return user, nil
	}
	return store.User{}, sql.ErrNoRows
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMockUserStore(), bcrypt.MinCost)

	t.Run("successful registration", func(t *testing.T) {
		user, err := svc.Register(ctx, "  alice  ", "secret1")
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		if user.Username != "alice" {
			t.Errorf("expected trimmed username alice, got %q", user.Username)
		}
		if len(user.ID) != 32 {
			t.Errorf("expected 32-hex generated user ID, got %q", user.ID)
		}
		if user.PasswordHash == "secret1" {
			t.Error("password stored in plaintext")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")); err != nil {
			t.Errorf("stored hash does not verify: %v", err)
		}
	})

	t.Run("duplicate username", func(t *testing.T) {
		if _, err := svc.Register(ctx, "alice", "another1"); !errors.Is(err, store.ErrUsernameTaken) {
			t.Errorf("expected ErrUsernameTaken, got %v", err)
		}
	})

	t.Run("cjk username accepted", func(t *testing.T) {
		if _, err := svc.Register(ctx, "陈浩嘉", "secret1"); err != nil {
			t.Errorf("CJK username rejected: %v", err)
		}
	})

	t.Run("invalid usernames", func(t *testing.T) {
		for _, name := range []string{"", "a", strings.Repeat("x", 51), "bad name", "semi;colon", "<script>"} {
			if _, err := svc.Register(ctx, name, "secret1"); !errors.Is(err, ErrInvalidUsername) {
				t.Errorf("username %q: expected ErrInvalidUsername, got %v", name, err)
			}
		}
	})

	t.Run("invalid passwords", func(t *testing.T) {
		for _, pw := range []string{"", "short", strings.Repeat("p", 73)} {
			if _, err := svc.Register(ctx, "newuser", pw); !errors.Is(err, ErrInvalidPassword) {
				t.Errorf("password %q: expected ErrInvalidPassword, got %v", pw, err)
			}
		}
	})
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMockUserStore(), bcrypt.MinCost)

	registered, err := svc.Register(ctx, "bob", "hunter22")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	t.Run("correct password", func(t *testing.T) {
		user, err := svc.SignIn(ctx, "bob", "hunter22")
		if err != nil {
			t.Fatalf("SignIn: %v", err)
		}
		if user.ID != registered.ID {
			t.Errorf("expected user %s, got %s", registered.ID, user.ID)
		}
	})

	t.Run("trims username before lookup", func(t *testing.T) {
		if _, err := svc.SignIn(ctx, " bob ", "hunter22"); err != nil {
			t.Errorf("SignIn with padded username: %v", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		if _, err := svc.SignIn(ctx, "bob", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown user indistinguishable from wrong password", func(t *testing.T) {
		if _, err := svc.SignIn(ctx, "nobody", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("empty password", func(t *testing.T) {
		if _, err := svc.SignIn(ctx, "bob", ""); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}
