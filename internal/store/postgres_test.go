// internal/store/postgres_test.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB attempts to connect to a PostgreSQL database for testing.
// It skips the test if the connection cannot be established.
func setupTestDB(t testing.TB) *PostgresStore {
	t.Helper()

	pgUser := os.Getenv("PGUSER")
	pgPassword := os.Getenv("PGPASSWORD")
	pgHost := os.Getenv("PGHOST")
	pgPort := os.Getenv("PGPORT")
	pgDB := os.Getenv("PGDATABASE")

	if pgUser == "" {
		pgUser = "user"
	}
	if pgPassword == "" {
		pgPassword = "password"
	}
	if pgHost == "" {
		pgHost = "localhost"
	}
	if pgPort == "" {
		pgPort = "5432"
	}
	if pgDB == "" {
		pgDB = "testdb"
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		pgHost, pgPort, pgUser, pgPassword, pgDB)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("failed to open database connection: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("skipping postgres tests: could not connect to postgres: %v", err)
	}

	s := NewPostgresStore(db)
	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		db.Exec("TRUNCATE TABLE borrowed_books, books, users CASCADE")
		db.Close()
	})

	return s
}

func TestPostgresStoreBookRoundTrip(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	book := newBook(uuid.NewString(), 3)
	require.NoError(t, s.InsertBook(ctx, book))

	found, err := s.FindBookByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, book.Title, found.Title)
	assert.Equal(t, book.ISBN, found.ISBN)
	assert.Equal(t, 3, found.Quantity)

	dupe := newBook(book.ISBN, 1)
	assert.ErrorIs(t, s.InsertBook(ctx, dupe), ErrDuplicateISBN)

	_, err = s.FindBookByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestPostgresStoreUserRoundTrip(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	user := newUser(uuid.NewString() + "@example.com")
	require.NoError(t, s.InsertUser(ctx, user))

	found, err := s.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, found.Email)
	assert.Empty(t, found.BorrowedBooks)

	byEmail, err := s.FindUserByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	assert.ErrorIs(t, s.InsertUser(ctx, newUser(user.Email)), ErrDuplicateEmail)
}

func TestPostgresStoreBorrowTransaction(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	book := newBook(uuid.NewString(), 1)
	user := newUser(uuid.NewString() + "@example.com")
	require.NoError(t, s.InsertBook(ctx, book))
	require.NoError(t, s.InsertUser(ctx, user))

	err := s.RunTransaction(ctx, func(tx Tx) error {
		loaded, err := tx.FindBookByID(ctx, book.ID)
		if err != nil {
			return err
		}
		if err := tx.SetBookQuantity(ctx, book.ID, loaded.Quantity-1); err != nil {
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

	// The composite primary key enforces set semantics on the borrowed set.
	err = s.RunTransaction(ctx, func(tx Tx) error {
		return tx.AddBorrowedBook(ctx, user.ID, book.ID)
	})
	assert.ErrorIs(t, err, ErrAlreadyBorrowed)
}

func TestPostgresStoreAbortLeavesStateUnchanged(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	book := newBook(uuid.NewString(), 2)
	require.NoError(t, s.InsertBook(ctx, book))

	err := s.RunTransaction(ctx, func(tx Tx) error {
		if err := tx.SetBookQuantity(ctx, book.ID, 0); err != nil {
			return err
		}
		return fmt.Errorf("forced abort")
	})
	require.Error(t, err)

	found, err := s.FindBookByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.Quantity)
}
