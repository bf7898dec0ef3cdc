// internal/store/domain.go
package store

import (
	"time"

	"github.com/google/uuid"
)

// Book is a catalog entry. Quantity counts the copies currently on the
// shelf, not the copies ever acquired.
type Book struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	ISBN      string    `json:"ISBN"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is a registered borrower. BorrowedBooks is a set: a user holds at
// most one copy of any given book at a time.
type User struct {
	ID            uuid.UUID   `json:"id"`
	Email         string      `json:"email"`
	Name          string      `json:"name"`
	PasswordHash  string      `json:"-"`
	Salt          string      `json:"-"`
	BorrowedBooks []uuid.UUID `json:"borrowedBooks"`
	CreatedAt     time.Time   `json:"created_at"`
}

// HasBorrowed reports whether the user currently holds the given book.
func (u *User) HasBorrowed(bookID uuid.UUID) bool {
	for _, id := range u.BorrowedBooks {
		if id == bookID {
			return true
		}
	}
	return false
}
