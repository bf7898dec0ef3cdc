// internal/catalog/handler.go
package catalog

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"libris/internal/httpx"
	"libris/internal/store"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// HandleCreateBook registers a new book.
// TODO: restrict to librarians once role-based authorization lands.
func (h *Handler) HandleCreateBook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title    string `json:"title"`
		Author   string `json:"author"`
		ISBN     string `json:"ISBN"`
		Quantity int    `json:"quantity"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid request body")
		return
	}

	book, err := h.service.CreateBook(r.Context(), req.Title, req.Author, req.ISBN, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields), errors.Is(err, ErrInvalidQuantity):
			httpx.Message(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrDuplicateISBN):
			httpx.Message(w, http.StatusBadRequest, "Book with this ISBN already exists")
		default:
			log.Printf("create book failed: %v", err)
			httpx.Message(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	httpx.JSON(w, http.StatusCreated, book)
}

func (h *Handler) HandleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListBooks(r.Context())
	if err != nil {
		log.Printf("list books failed: %v", err)
		httpx.Message(w, http.StatusInternalServerError, "Server error")
		return
	}

	httpx.JSON(w, http.StatusOK, books)
}

func (h *Handler) HandleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		// A malformed ID is indistinguishable from a missing book.
		httpx.Message(w, http.StatusNotFound, "Book not found")
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			httpx.Message(w, http.StatusNotFound, "Book not found")
			return
		}
		log.Printf("get book failed: %v", err)
		httpx.Message(w, http.StatusInternalServerError, "Server error")
		return
	}

	httpx.JSON(w, http.StatusOK, book)
}
