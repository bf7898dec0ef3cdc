// internal/circulation/handler.go
package circulation

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"libris/internal/httpx"
	"libris/internal/identity"
	"libris/internal/store"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleBorrow(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		httpx.Message(w, http.StatusUnauthorized, "missing or invalid token")
		return
	}

	bookID, err := uuid.Parse(chi.URLParam(r, "bookId"))
	if err != nil {
		httpx.Message(w, http.StatusNotFound, "Book not found")
		return
	}

	book, user, err := h.service.Borrow(r.Context(), userID, bookID)
	if err != nil {
		h.writeLoanError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]interface{}{
		"message": "Book borrowed successfully",
		"book":    book,
		"user":    user,
	})
}

func (h *Handler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		httpx.Message(w, http.StatusUnauthorized, "missing or invalid token")
		return
	}

	bookID, err := uuid.Parse(chi.URLParam(r, "bookId"))
	if err != nil {
		httpx.Message(w, http.StatusNotFound, "Book not found")
		return
	}

	book, user, err := h.service.Return(r.Context(), userID, bookID)
	if err != nil {
		h.writeLoanError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]interface{}{
		"message": "Book returned successfully",
		"book":    book,
		"user":    user,
	})
}

func (h *Handler) HandleListBorrowed(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		httpx.Message(w, http.StatusUnauthorized, "missing or invalid token")
		return
	}

	targetID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		httpx.Message(w, http.StatusNotFound, "User not found")
		return
	}

	books, err := h.service.ListBorrowed(r.Context(), requesterID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotAuthorized):
			httpx.Message(w, http.StatusForbidden, err.Error())
		case errors.Is(err, store.ErrUserNotFound):
			httpx.Message(w, http.StatusNotFound, "User not found")
		default:
			log.Printf("list borrowed failed: %v", err)
			httpx.Message(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	httpx.JSON(w, http.StatusOK, books)
}

func (h *Handler) writeLoanError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrBookNotFound):
		httpx.Message(w, http.StatusNotFound, "Book not found")
	case errors.Is(err, store.ErrUserNotFound):
		httpx.Message(w, http.StatusNotFound, "User not found")
	case errors.Is(err, ErrOutOfStock), errors.Is(err, ErrAlreadyBorrowed), errors.Is(err, ErrNotBorrowed):
		httpx.Message(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrAlreadyBorrowed):
		httpx.Message(w, http.StatusBadRequest, ErrAlreadyBorrowed.Error())
	case errors.Is(err, store.ErrNotBorrowed):
		httpx.Message(w, http.StatusBadRequest, ErrNotBorrowed.Error())
	default:
		log.Printf("loan transaction failed: %v", err)
		httpx.Message(w, http.StatusInternalServerError, "Server error")
	}
}
