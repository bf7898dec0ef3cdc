// internal/catalog/implementation.go
package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"libris/internal/store"
)

// service implements the Service interface.
type service struct {
	store store.Store
}

// NewService creates a new catalog service instance.
func NewService(st store.Store) Service {
	return &service{store: st}
}

// CreateBook validates and persists a new book. A book must start with at
// least one copy; after creation the quantity may drop to zero but the
// catalog never accepts a book that begins out of stock.
func (s *service) CreateBook(ctx context.Context, title, author, isbn string, quantity int) (*store.Book, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(author) == "" || strings.TrimSpace(isbn) == "" {
		return nil, ErrMissingFields
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	book := &store.Book{
		ID:       uuid.New(),
		Title:    title,
		Author:   author,
		ISBN:     isbn,
		Quantity: quantity,
	}
	if err := s.store.InsertBook(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// ListBooks returns every book in the catalog in creation order.
func (s *service) ListBooks(ctx context.Context) ([]*store.Book, error) {
	return s.store.ListBooks(ctx)
}

// GetBook retrieves a single book by its ID.
func (s *service) GetBook(ctx context.Context, id uuid.UUID) (*store.Book, error) {
	return s.store.FindBookByID(ctx, id)
}
