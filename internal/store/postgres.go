// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const schema = `
CREATE TABLE IF NOT EXISTS books (
	id UUID PRIMARY KEY,
	title TEXT NOT NULL,
	author TEXT NOT NULL,
	isbn TEXT NOT NULL UNIQUE,
	quantity INT NOT NULL CHECK (quantity >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	salt TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS borrowed_books (
	user_id UUID NOT NULL REFERENCES users(id),
	book_id UUID NOT NULL REFERENCES books(id),
	borrowed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (user_id, book_id)
);
`

// PostgresStore implements Store on top of PostgreSQL. The borrowed set is a
// join table with a composite primary key, so duplicate references are
// rejected by the schema and not only by the engine's checks.
type PostgresStore struct {
	db     *sql.DB
	tracer trace.Tracer
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:     db,
		tracer: otel.Tracer("libris/store"),
	}
}

// EnsureSchema creates the tables if they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertBook(ctx context.Context, book *Book) error {
	query := `
		INSERT INTO books (id, title, author, isbn, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`
	now := time.Now().UTC()
	book.CreatedAt = now
	book.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, query, book.ID, book.Title, book.Author, book.ISBN, book.Quantity, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateISBN
		}
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindBookByID(ctx context.Context, id uuid.UUID) (*Book, error) {
	return findBook(ctx, s.db, id)
}

func (s *PostgresStore) ListBooks(ctx context.Context) ([]*Book, error) {
	query := `
		SELECT id, title, author, isbn, quantity, created_at, updated_at
		FROM books
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	return scanBooks(rows)
}

func (s *PostgresStore) FindBooksByIDs(ctx context.Context, ids []uuid.UUID) ([]*Book, error) {
	if len(ids) == 0 {
		return []*Book{}, nil
	}

	query := `
		SELECT id, title, author, isbn, quantity, created_at, updated_at
		FROM books
		WHERE id = ANY($1)
	`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("find books by ids: %w", err)
	}
	defer rows.Close()

	found, err := scanBooks(rows)
	if err != nil {
		return nil, err
	}

	// Preserve the caller's ordering (the user's borrow order).
	byID := make(map[uuid.UUID]*Book, len(found))
	for _, b := range found {
		byID[b.ID] = b
	}
	books := make([]*Book, 0, len(ids))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			books = append(books, b)
		}
	}
	return books, nil
}

func (s *PostgresStore) InsertUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, name, password_hash, salt, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	now := time.Now().UTC()
	user.CreatedAt = now
	if user.BorrowedBooks == nil {
		user.BorrowedBooks = []uuid.UUID{}
	}
	_, err := s.db.ExecContext(ctx, query, user.ID, user.Email, user.Name, user.PasswordHash, user.Salt, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return findUser(ctx, s.db, id)
}

func (s *PostgresStore) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, name, password_hash, salt, created_at
		FROM users
		WHERE email = $1
	`
	user := &User{}
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Salt,
		&user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	user.BorrowedBooks, err = loadBorrowedBooks(ctx, s.db, user.ID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// RunTransaction executes fn inside a serializable transaction. Serialization
// failures and write conflicts surface as ErrTxConflict so two concurrent
// borrows of the last copy can never both commit.
func (s *PostgresStore) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	ctx, span := s.tracer.Start(ctx, "store.transaction")
	defer span.End()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("tx.begin_failed", true))
		return fmt.Errorf("%w: begin: %v", ErrTxConflict, err)
	}
	defer tx.Rollback()

	if err := fn(&pgTx{tx: tx}); err != nil {
		if isSerializationFailure(err) {
			span.SetAttributes(attribute.Bool("tx.conflict", true))
			return ErrTxConflict
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		span.SetAttributes(attribute.Bool("tx.conflict", true))
		return fmt.Errorf("%w: commit: %v", ErrTxConflict, err)
	}

	span.SetAttributes(attribute.Bool("tx.committed", true))
	return nil
}

// pgTx runs the per-transaction operations against the open *sql.Tx.
type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) FindBookByID(ctx context.Context, id uuid.UUID) (*Book, error) {
	return findBook(ctx, t.tx, id)
}

func (t *pgTx) FindUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return findUser(ctx, t.tx, id)
}

func (t *pgTx) SetBookQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	query := `
		UPDATE books
		SET quantity = $1, updated_at = NOW()
		WHERE id = $2
	`
	res, err := t.tx.ExecContext(ctx, query, quantity, id)
	if err != nil {
		return fmt.Errorf("set book quantity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set book quantity: %w", err)
	}
	if n == 0 {
		return ErrBookNotFound
	}
	return nil
}

func (t *pgTx) AddBorrowedBook(ctx context.Context, userID, bookID uuid.UUID) error {
	query := `
		INSERT INTO borrowed_books (user_id, book_id)
		VALUES ($1, $2)
	`
	_, err := t.tx.ExecContext(ctx, query, userID, bookID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyBorrowed
		}
		return fmt.Errorf("add borrowed book: %w", err)
	}
	return nil
}

func (t *pgTx) RemoveBorrowedBook(ctx context.Context, userID, bookID uuid.UUID) error {
	query := `
		DELETE FROM borrowed_books
		WHERE user_id = $1 AND book_id = $2
	`
	res, err := t.tx.ExecContext(ctx, query, userID, bookID)
	if err != nil {
		return fmt.Errorf("remove borrowed book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove borrowed book: %w", err)
	}
	if n == 0 {
		return ErrNotBorrowed
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx so finds run inside and
// outside transactions with the same code.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func findBook(ctx context.Context, q querier, id uuid.UUID) (*Book, error) {
	query := `
		SELECT id, title, author, isbn, quantity, created_at, updated_at
		FROM books
		WHERE id = $1
	`
	book := &Book{}
	err := q.QueryRowContext(ctx, query, id).Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.ISBN,
		&book.Quantity,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("find book: %w", err)
	}
	return book, nil
}

func findUser(ctx context.Context, q querier, id uuid.UUID) (*User, error) {
	query := `
		SELECT id, email, name, password_hash, salt, created_at
		FROM users
		WHERE id = $1
	`
	user := &User{}
	err := q.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Salt,
		&user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	user.BorrowedBooks, err = loadBorrowedBooks(ctx, q, id)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func loadBorrowedBooks(ctx context.Context, q querier, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT book_id
		FROM borrowed_books
		WHERE user_id = $1
		ORDER BY borrowed_at, book_id
	`
	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("load borrowed books: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan borrowed book: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate borrowed books: %w", err)
	}
	return ids, nil
}

func scanBooks(rows *sql.Rows) ([]*Book, error) {
	books := []*Book{}
	for rows.Next() {
		book := &Book{}
		err := rows.Scan(
			&book.ID,
			&book.Title,
			&book.Author,
			&book.ISBN,
			&book.Quantity,
			&book.CreatedAt,
			&book.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}
	return books, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	// 40001 serialization_failure, 40P01 deadlock_detected
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}
