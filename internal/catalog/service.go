// internal/catalog/service.go
package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"libris/internal/store"
)

var (
	// ErrMissingFields indicates a required field was absent or blank.
	ErrMissingFields = errors.New("please provide all required fields")
	// ErrInvalidQuantity indicates a creation request with fewer than one copy.
	ErrInvalidQuantity = errors.New("new books must have at least 1 copy")
)

// Service defines the interface for the book catalog.
type Service interface {
	CreateBook(ctx context.Context, title, author, isbn string, quantity int) (*store.Book, error)
	ListBooks(ctx context.Context) ([]*store.Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (*store.Book, error)
}
