package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cartera/internal/config"
	"cartera/internal/core"
	applog "cartera/internal/log"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// UserStore is the slice of storage the auth service needs.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (core.User, error)
	UpsertUser(ctx context.Context, u core.User) error
}

// Claims carries the authenticated identity inside the JWT.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type Service struct {
	store  UserStore
	secret []byte
	ttl    time.Duration
	logger *applog.Logger
}

func NewService(store UserStore, secret string, ttl time.Duration, logger *applog.Logger) *Service {
	return &Service{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		logger: logger,
	}
}

// Login verifies the password and returns a signed token plus the user.
func (s *Service) Login(ctx context.Context, username, password string) (string, core.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Same failure as a bad password so usernames can't be probed.
			return "", core.User{}, ErrInvalidCredentials
		}
		return "", core.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "Login rejected", applog.FieldUser, username)
		return "", core.User{}, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", core.User{}, fmt.Errorf("issue token: %w", err)
	}

	s.logger.InfoContext(ctx, "Login succeeded", applog.FieldUser, username)
	return token, user, nil
}

func (s *Service) issueToken(user core.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken validates the signature and expiry and returns the claims.
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// EnsureUsers seeds the two wallet owners. Wallets without a configured
// password are skipped so a missing secret never creates a guessable login.
func (s *Service) EnsureUsers(ctx context.Context, wallets []config.WalletConfig) error {
	for _, w := range wallets {
		if w.Password == "" {
			s.logger.WarnContext(ctx, "No password configured, skipping user seed", applog.FieldUser, w.Name)
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(w.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", w.Name, err)
		}

		if err := s.store.UpsertUser(ctx, core.User{
			ID:           uuid.NewString(),
			Username:     w.Name,
			PasswordHash: string(hash),
		}); err != nil {
			return fmt.Errorf("seed user %s: %w", w.Name, err)
		}

		s.logger.InfoContext(ctx, "Seeded user", applog.FieldUser, w.Name)
	}
	return nil
}
