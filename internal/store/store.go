// internal/store/store.go
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrBookNotFound    = errors.New("book not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrDuplicateISBN   = errors.New("book with this ISBN already exists")
	ErrDuplicateEmail  = errors.New("user with this email already exists")
	ErrAlreadyBorrowed = errors.New("book is already in the user's borrowed set")
	ErrNotBorrowed     = errors.New("book is not in the user's borrowed set")
	ErrTxConflict      = errors.New("transaction conflict")
)

// Tx exposes the operations available inside a transaction. All reads see a
// single consistent snapshot and all writes commit atomically or not at all.
type Tx interface {
	FindBookByID(ctx context.Context, id uuid.UUID) (*Book, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	SetBookQuantity(ctx context.Context, id uuid.UUID, quantity int) error
	AddBorrowedBook(ctx context.Context, userID, bookID uuid.UUID) error
	RemoveBorrowedBook(ctx context.Context, userID, bookID uuid.UUID) error
}

// Store is the durable document store holding the Books and Users
// collections. Services receive it injected so tests can substitute the
// in-memory implementation.
type Store interface {
	InsertBook(ctx context.Context, book *Book) error
	FindBookByID(ctx context.Context, id uuid.UUID) (*Book, error)
	ListBooks(ctx context.Context) ([]*Book, error)
	FindBooksByIDs(ctx context.Context, ids []uuid.UUID) ([]*Book, error)

	InsertUser(ctx context.Context, user *User) error
	FindUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)

	// RunTransaction executes fn atomically. A non-nil error from fn aborts
	// the transaction and is returned unchanged; a commit failure surfaces
	// as ErrTxConflict.
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error
}
