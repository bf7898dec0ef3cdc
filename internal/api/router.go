// internal/api/router.go

// Package api assembles the HTTP surface of the service.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"libris/internal/catalog"
	"libris/internal/circulation"
	"libris/internal/httpx"
	"libris/internal/identity"
)

// NewRouter wires every handler onto the chi router. Catalog reads are
// public; borrow, return and the borrowed-books listing require a verified
// credential.
func NewRouter(books *catalog.Handler, loans *circulation.Handler, users *identity.Handler, verifier identity.Verifier) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		httpx.Message(w, http.StatusOK, "Welcome to the Library Management System API")
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/books", books.HandleCreateBook)
		r.Get("/books", books.HandleListBooks)
		r.Get("/books/{id}", books.HandleGetBook)

		r.Post("/users/register", users.HandleRegister)
		r.Post("/users/login", users.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(identity.RequireAuth(verifier))
			r.Post("/borrow/{bookId}", loans.HandleBorrow)
			r.Post("/return/{bookId}", loans.HandleReturn)
			r.Get("/users/{userId}/books", loans.HandleListBorrowed)
		})
	})

	return r
}
