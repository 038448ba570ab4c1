// Package auth handles account creation, login and bearer-token
// verification for the HTTP API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"tally/internal/ledger"
)

const tokenTTL = 24 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Service issues and verifies tokens against a user store.
type Service struct {
	users  ledger.UserStore
	secret []byte
	now    func() time.Time
}

func NewService(users ledger.UserStore, secret string) *Service {
	return &Service{
		users:  users,
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Signup creates an account and returns a fresh token for it.
func (s *Service) Signup(ctx context.Context, email, password, fullName string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return "", fmt.Errorf("%w: email", ErrInvalidCredentials)
	}
	if len(password) < 8 {
		return "", fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidCredentials)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.CreateUser(ctx, email, string(hashed), fullName)
	if err != nil {
		return "", err
	}
	return s.issueToken(u.ID)
}

// Login verifies the credentials and returns a fresh token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, ledger.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.issueToken(u.ID)
}

func (s *Service) issueToken(ownerID string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"owner_id": ownerID,
		"iat":      now.Unix(),
		"exp":      now.Add(tokenTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses a bearer token and returns the owner it belongs to.
func (s *Service) VerifyToken(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	ownerID, ok := claims["owner_id"].(string)
	if !ok || ownerID == "" {
		return "", ErrInvalidToken
	}
	return ownerID, nil
}
