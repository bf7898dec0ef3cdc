// internal/circulation/implementation.go
package circulation

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"libris/internal/store"
)

// service implements the Service interface. Every borrow and return runs
// inside a single store transaction: the quantity change and the
// borrowed-set change commit together or not at all.
type service struct {
	store  store.Store
	tracer trace.Tracer
}

// NewService creates a new circulation service instance.
func NewService(st store.Store) Service {
	return &service{
		store:  st,
		tracer: otel.Tracer("libris/circulation"),
	}
}

// Borrow checks out one copy of a book to a user. All checks are evaluated
// against the transaction snapshot, so two concurrent borrows of the last
// copy cannot both observe quantity 1 and drive it negative.
func (s *service) Borrow(ctx context.Context, userID, bookID uuid.UUID) (*store.Book, *store.User, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.borrow",
		trace.WithAttributes(
			attribute.String("user.id", userID.String()),
			attribute.String("book.id", bookID.String()),
		),
	)
	defer span.End()

	var book *store.Book
	var user *store.User

	err := s.store.RunTransaction(ctx, func(tx store.Tx) error {
		var err error

		book, err = tx.FindBookByID(ctx, bookID)
		if err != nil {
			return err
		}
		if book.Quantity <= 0 {
			return ErrOutOfStock
		}

		user, err = tx.FindUserByID(ctx, userID)
		if err != nil {
			return err
		}
		if user.HasBorrowed(bookID) {
			return ErrAlreadyBorrowed
		}

		book.Quantity--
		if err := tx.SetBookQuantity(ctx, bookID, book.Quantity); err != nil {
			return err
		}
		if err := tx.AddBorrowedBook(ctx, userID, bookID); err != nil {
			return err
		}
		user.BorrowedBooks = append(user.BorrowedBooks, bookID)
		return nil
	})
	if err != nil {
		span.SetAttributes(attribute.String("borrow.outcome", err.Error()))
		return nil, nil, err
	}

	span.SetAttributes(attribute.Int("book.quantity", book.Quantity))
	return book, user, nil
}

// Return puts one copy of a book back on the shelf and removes exactly one
// matching reference from the user's borrowed set.
func (s *service) Return(ctx context.Context, userID, bookID uuid.UUID) (*store.Book, *store.User, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.return",
		trace.WithAttributes(
			attribute.String("user.id", userID.String()),
			attribute.String("book.id", bookID.String()),
		),
	)
	defer span.End()

	var book *store.Book
	var user *store.User

	err := s.store.RunTransaction(ctx, func(tx store.Tx) error {
		var err error

		book, err = tx.FindBookByID(ctx, bookID)
		if err != nil {
			return err
		}
		user, err = tx.FindUserByID(ctx, userID)
		if err != nil {
			return err
		}
		if !user.HasBorrowed(bookID) {
			return ErrNotBorrowed
		}

		book.Quantity++
		if err := tx.SetBookQuantity(ctx, bookID, book.Quantity); err != nil {
			return err
		}
		if err := tx.RemoveBorrowedBook(ctx, userID, bookID); err != nil {
			return err
		}
		removeBookRef(user, bookID)
		return nil
	})
	if err != nil {
		span.SetAttributes(attribute.String("return.outcome", err.Error()))
		return nil, nil, err
	}

	span.SetAttributes(attribute.Int("book.quantity", book.Quantity))
	return book, user, nil
}

// ListBorrowed expands a user's borrowed-set into the referenced books.
// Users may only read their own set.
func (s *service) ListBorrowed(ctx context.Context, requesterID, targetID uuid.UUID) ([]*store.Book, error) {
	if requesterID != targetID {
		return nil, ErrNotAuthorized
	}

	user, err := s.store.FindUserByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return s.store.FindBooksByIDs(ctx, user.BorrowedBooks)
}

func removeBookRef(user *store.User, bookID uuid.UUID) {
	for i, id := range user.BorrowedBooks {
		if id == bookID {
			user.BorrowedBooks = append(user.BorrowedBooks[:i], user.BorrowedBooks[i+1:]...)
			return
		}
	}
}
