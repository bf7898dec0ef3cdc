// internal/identity/service.go
package identity

import (
	"context"
	"errors"

	"libris/internal/store"
)

var (
	// ErrMissingFields indicates a blank email, name or password.
	ErrMissingFields = errors.New("please provide all required fields")
	// ErrInvalidCredentials covers unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRateLimited indicates too many registration/login attempts.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Service defines the interface for user registration and login.
type Service interface {
	Register(ctx context.Context, email, name, password string) (*store.User, error)
	Login(ctx context.Context, email, password string) (string, *store.User, error)
}
