// internal/identity/implementation.go
package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"libris/internal/store"
)

// service implements the Service interface.
type service struct {
	store       store.Store
	tokens      *TokenService
	rateLimiter *rate.Limiter
}

// NewService creates a new identity service instance.
func NewService(st store.Store, tokens *TokenService) Service {
	return &service{
		store:       st,
		tokens:      tokens,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute), 5), // 5 requests per minute
	}
}

// Register creates a new user with a salted Argon2id password hash.
func (s *service) Register(ctx context.Context, email, name, password string) (*store.User, error) {
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}

	if strings.TrimSpace(email) == "" || strings.TrimSpace(name) == "" || password == "" {
		return nil, ErrMissingFields
	}

	passwordHash, salt, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &store.User{
		ID:            uuid.New(),
		Email:         email,
		Name:          name,
		PasswordHash:  passwordHash,
		Salt:          salt,
		BorrowedBooks: []uuid.UUID{},
	}
	if err := s.store.InsertUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies the credentials and issues a signed token for the user.
func (s *service) Login(ctx context.Context, email, password string) (string, *store.User, error) {
	if !s.rateLimiter.Allow() {
		return "", nil, ErrRateLimited
	}

	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		// Unknown email reads the same as a wrong password.
		return "", nil, ErrInvalidCredentials
	}

	ok, err := verifyPassword(password, user.Salt, user.PasswordHash)
	if err != nil || !ok {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return token, user, nil
}
