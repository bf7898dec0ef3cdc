// internal/circulation/service.go
package circulation

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"libris/internal/store"
)

var (
	// ErrOutOfStock indicates every copy of the book is checked out.
	ErrOutOfStock = errors.New("this book is currently out of stock")
	// ErrAlreadyBorrowed rejects a second borrow of the same book by one
	// user. A retried borrow fails; it is never silently accepted.
	ErrAlreadyBorrowed = errors.New("you have already borrowed this book")
	// ErrNotBorrowed rejects a return of a book the user does not hold.
	ErrNotBorrowed = errors.New("you have not borrowed this book")
	// ErrNotAuthorized rejects reading another user's borrowed books.
	ErrNotAuthorized = errors.New("not authorized to view other users' books")
)

// Service defines the interface for the borrow/return engine and the
// borrowed-books query.
type Service interface {
	Borrow(ctx context.Context, userID, bookID uuid.UUID) (*store.Book, *store.User, error)
	Return(ctx context.Context, userID, bookID uuid.UUID) (*store.Book, *store.User, error)
	ListBorrowed(ctx context.Context, requesterID, targetID uuid.UUID) ([]*store.Book, error)
}
