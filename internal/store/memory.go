// internal/store/memory.go
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store entirely in memory. Transactions are
// serialized by a single mutex and operate on staged copies, so fn either
// commits all of its writes or none of them. Used by tests and local runs
// without a database.
type MemoryStore struct {
	mu        sync.Mutex
	books     map[uuid.UUID]*Book
	bookOrder []uuid.UUID
	users     map[uuid.UUID]*User
	byISBN    map[string]uuid.UUID
	byEmail   map[string]uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		books:   make(map[uuid.UUID]*Book),
		users:   make(map[uuid.UUID]*User),
		byISBN:  make(map[string]uuid.UUID),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (s *MemoryStore) InsertBook(ctx context.Context, book *Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byISBN[book.ISBN]; exists {
		return ErrDuplicateISBN
	}
	now := time.Now().UTC()
	book.CreatedAt = now
	book.UpdatedAt = now
	s.books[book.ID] = cloneBook(book)
	s.bookOrder = append(s.bookOrder, book.ID)
	s.byISBN[book.ISBN] = book.ID
	return nil
}

func (s *MemoryStore) FindBookByID(ctx context.Context, id uuid.UUID) (*Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, ok := s.books[id]
	if !ok {
		return nil, ErrBookNotFound
	}
	return cloneBook(book), nil
}

func (s *MemoryStore) ListBooks(ctx context.Context) ([]*Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books := make([]*Book, 0, len(s.bookOrder))
	for _, id := range s.bookOrder {
		books = append(books, cloneBook(s.books[id]))
	}
	return books, nil
}

func (s *MemoryStore) FindBooksByIDs(ctx context.Context, ids []uuid.UUID) ([]*Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books := make([]*Book, 0, len(ids))
	for _, id := range ids {
		if book, ok := s.books[id]; ok {
			books = append(books, cloneBook(book))
		}
	}
	return books, nil
}

func (s *MemoryStore) InsertUser(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return ErrDuplicateEmail
	}
	user.CreatedAt = time.Now().UTC()
	if user.BorrowedBooks == nil {
		user.BorrowedBooks = []uuid.UUID{}
	}
	s.users[user.ID] = cloneUser(user)
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *MemoryStore) FindUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(user), nil
}

func (s *MemoryStore) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(s.users[id]), nil
}

func (s *MemoryStore) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		store: s,
		books: make(map[uuid.UUID]*Book),
		users: make(map[uuid.UUID]*User),
	}
	if err := fn(tx); err != nil {
		return err
	}

	for id, book := range tx.books {
		book.UpdatedAt = time.Now().UTC()
		s.books[id] = book
	}
	for id, user := range tx.users {
		s.users[id] = user
	}
	return nil
}

// memTx stages writes against copies of the live documents; RunTransaction
// applies the staged state only when fn succeeds.
type memTx struct {
	store *MemoryStore
	books map[uuid.UUID]*Book
	users map[uuid.UUID]*User
}

func (t *memTx) stagedBook(id uuid.UUID) (*Book, bool) {
	if book, ok := t.books[id]; ok {
		return book, true
	}
	book, ok := t.store.books[id]
	if !ok {
		return nil, false
	}
	staged := cloneBook(book)
	t.books[id] = staged
	return staged, true
}

func (t *memTx) stagedUser(id uuid.UUID) (*User, bool) {
	if user, ok := t.users[id]; ok {
		return user, true
	}
	user, ok := t.store.users[id]
	if !ok {
		return nil, false
	}
	staged := cloneUser(user)
	t.users[id] = staged
	return staged, true
}

func (t *memTx) FindBookByID(ctx context.Context, id uuid.UUID) (*Book, error) {
	book, ok := t.stagedBook(id)
	if !ok {
		return nil, ErrBookNotFound
	}
	return cloneBook(book), nil
}

func (t *memTx) FindUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user, ok := t.stagedUser(id)
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(user), nil
}

func (t *memTx) SetBookQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	book, ok := t.stagedBook(id)
	if !ok {
		return ErrBookNotFound
	}
	book.Quantity = quantity
	return nil
}

func (t *memTx) AddBorrowedBook(ctx context.Context, userID, bookID uuid.UUID) error {
	user, ok := t.stagedUser(userID)
	if !ok {
		return ErrUserNotFound
	}
	if user.HasBorrowed(bookID) {
		return ErrAlreadyBorrowed
	}
	user.BorrowedBooks = append(user.BorrowedBooks, bookID)
	return nil
}

func (t *memTx) RemoveBorrowedBook(ctx context.Context, userID, bookID uuid.UUID) error {
	user, ok := t.stagedUser(userID)
	if !ok {
		return ErrUserNotFound
	}
	for i, id := range user.BorrowedBooks {
		if id == bookID {
			user.BorrowedBooks = append(user.BorrowedBooks[:i], user.BorrowedBooks[i+1:]...)
			return nil
		}
	}
	return ErrNotBorrowed
}

func cloneBook(book *Book) *Book {
	copied := *book
	return &copied
}

func cloneUser(user *User) *User {
	copied := *user
	copied.BorrowedBooks = make([]uuid.UUID, len(user.BorrowedBooks))
	copy(copied.BorrowedBooks, user.BorrowedBooks)
	return &copied
}
