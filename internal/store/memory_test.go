// internal/store/memory_test.go
package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBook(isbn string, quantity int) *Book {
	return &Book{
		ID:       uuid.New(),
		Title:    "Test Title",
		Author:   "Test Author",
		ISBN:     isbn,
		Quantity: quantity,
	}
}

func newUser(email string) *User {
	return &User{
		ID:            uuid.New(),
		Email:         email,
		Name:          "Test User",
		PasswordHash:  "hash",
		Salt:          "salt",
		BorrowedBooks: []uuid.UUID{},
	}
}

func TestMemoryStoreInsertAndFindBook(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	book := newBook("978-0", 3)
	require.NoError(t, s.InsertBook(ctx, book))

	found, err := s.FindBookByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, book.ISBN, found.ISBN)
	assert.Equal(t, 3, found.Quantity)

	_, err = s.FindBookByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestMemoryStoreDuplicateISBN(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.InsertBook(ctx, newBook("978-1", 1)))
	err := s.InsertBook(ctx, newBook("978-1", 2))
	assert.ErrorIs(t, err, ErrDuplicateISBN)

	books, err := s.ListBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 1, "failed insert must not change the catalog")
}

func TestMemoryStoreListBooksPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first := newBook("978-a", 1)
	second := newBook("978-b", 1)
	require.NoError(t, s.InsertBook(ctx, first))
	require.NoError(t, s.InsertBook(ctx, second))

	books, err := s.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, first.ID, books[0].ID)
	assert.Equal(t, second.ID, books[1].ID)
}

func TestMemoryStoreDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.InsertUser(ctx, newUser("a@example.com")))
	err := s.InsertUser(ctx, newUser("a@example.com"))
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestMemoryStoreTransactionCommitsAtomically(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	book := newBook("978-2", 1)
	user := newUser("b@example.com")
	require.NoError(t, s.InsertBook(ctx, book))
	require.NoError(t, s.InsertUser(ctx, user))

	err := s.RunTransaction(ctx, func(tx Tx) error {
		if err := tx.SetBookQuantity(ctx, book.ID, 0); err != nil {
			return err
		}
		return tx.AddBorrowedBook(ctx, user.ID, book.ID)
	})
	require.NoError(t, err)

	found, err := s.FindBookByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, found.Quantity)

	foundUser, err := s.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{book.ID}, foundUser.BorrowedBooks)
}

func TestMemoryStoreTransactionAbortsWithoutPartialWrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	book := newBook("978-3", 2)
	require.NoError(t, s.InsertBook(ctx, book))

	boom := errors.New("boom")
	err := s.RunTransaction(ctx, func(tx Tx) error {
		if err := tx.SetBookQuantity(ctx, book.ID, 0); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	found, err := s.FindBookByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.Quantity, "aborted transaction must leave state unchanged")
}

func TestMemoryStoreBorrowedSetRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	book := newBook("978-4", 5)
	user := newUser("c@example.com")
	require.NoError(t, s.InsertBook(ctx, book))
	require.NoError(t, s.InsertUser(ctx, user))

	err := s.RunTransaction(ctx, func(tx Tx) error {
		return tx.AddBorrowedBook(ctx, user.ID, book.ID)
	})
	require.NoError(t, err)

	err = s.RunTransaction(ctx, func(tx Tx) error {
		return tx.AddBorrowedBook(ctx, user.ID, book.ID)
	})
	assert.ErrorIs(t, err, ErrAlreadyBorrowed)

	foundUser, err := s.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, foundUser.BorrowedBooks, 1)
}

func TestMemoryStoreRemoveBorrowedBook(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	book := newBook("978-5", 1)
	user := newUser("d@example.com")
	require.NoError(t, s.InsertBook(ctx, book))
	require.NoError(t, s.InsertUser(ctx, user))

	err := s.RunTransaction(ctx, func(tx Tx) error {
		return tx.RemoveBorrowedBook(ctx, user.ID, book.ID)
	})
	assert.ErrorIs(t, err, ErrNotBorrowed)

	require.NoError(t, s.RunTransaction(ctx, func(tx Tx) error {
		return tx.AddBorrowedBook(ctx, user.ID, book.ID)
	}))
	require.NoError(t, s.RunTransaction(ctx, func(tx Tx) error {
		return tx.RemoveBorrowedBook(ctx, user.ID, book.ID)
	}))

	foundUser, err := s.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, foundUser.BorrowedBooks)
}

func TestMemoryStoreFindBooksByIDsPreservesOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first := newBook("978-6", 1)
	second := newBook("978-7", 1)
	require.NoError(t, s.InsertBook(ctx, first))
	require.NoError(t, s.InsertBook(ctx, second))

	books, err := s.FindBooksByIDs(ctx, []uuid.UUID{second.ID, first.ID})
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, second.ID, books[0].ID)
	assert.Equal(t, first.ID, books[1].ID)

	books, err = s.FindBooksByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, books)
}
