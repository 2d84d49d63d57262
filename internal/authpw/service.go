// Package authpw provides username/password account registration and sign-in.
package authpw

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"fieldreport/api/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// Usernames allow letters, digits, CJK ideographs, underscores and hyphens.
var usernamePattern = regexp.MustCompile(`^[\w\x{4e00}-\x{9fa5}-]+$`)

const (
	minUsernameLen = 2
	maxUsernameLen = 50
	minPasswordLen = 6
	maxPasswordLen = 72 // bcrypt input limit
)

var (
	ErrInvalidUsername    = errors.New("username must be 2-50 letters, digits, CJK characters, underscores or hyphens")
	ErrInvalidPassword    = errors.New("password must be 6-72 characters")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// UserStore defines the account storage the service needs.
type UserStore interface {
	CreateUser(ctx context.Context, user store.User) error
	GetUserByUsername(ctx context.Context, username string) (store.User, error)
}

// Service provides account registration and password verification.
type Service struct {
	store      UserStore
	bcryptCost int
}

// NewService creates an auth service. A cost of 0 uses the bcrypt default.
func NewService(userStore UserStore, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{store: userStore, bcryptCost: bcryptCost}
}

// ValidateUsername checks the account naming rules and returns the trimmed
// username.
func ValidateUsername(username string) (string, error) {
	trimmed := strings.TrimSpace(username)
	runes := len([]rune(trimmed))
	if runes < minUsernameLen || runes > maxUsernameLen {
		return "", ErrInvalidUsername
	}
	if !usernamePattern.MatchString(trimmed) {
		return "", ErrInvalidUsername
	}
	return trimmed, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return ErrInvalidPassword
	}
	return nil
}

// Register creates a new account. Username uniqueness is enforced by the
// store; a collision surfaces as store.ErrUsernameTaken.
func (s *Service) Register(ctx context.Context, username, password string) (store.User, error) {
	name, err := ValidateUsername(username)
	if err != nil {
		return store.User{}, err
	}
	if err := validatePassword(password); err != nil {
		return store.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return store.User{}, fmt.Errorf("hash password: %w", err)
	}

	id, err := generateID()
	if err != nil {
		return store.User{}, fmt.Errorf("generate user id: %w", err)
	}

	user := store.User{
		ID:           id,
		Username:     name,
		PasswordHash: string(hash),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return store.User{}, err
	}
	return user, nil
}

// SignIn verifies a username/password pair. Unknown users and wrong passwords
// produce the same error.
func (s *Service) SignIn(ctx context.Context, username, password string) (store.User, error) {
	name, err := ValidateUsername(username)
	if err != nil {
		return store.User{}, ErrInvalidCredentials
	}
	if password == "" {
		return store.User{}, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByUsername(ctx, name)
	if err != nil {
		return store.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return store.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func generateID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
