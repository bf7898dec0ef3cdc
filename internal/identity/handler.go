// internal/identity/handler.go
package identity

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"libris/internal/httpx"
	"libris/internal/store"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			httpx.Message(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrDuplicateEmail):
			httpx.Message(w, http.StatusBadRequest, "User with this email already exists")
		case errors.Is(err, ErrRateLimited):
			httpx.Message(w, http.StatusTooManyRequests, err.Error())
		default:
			log.Printf("register failed: %v", err)
			httpx.Message(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			httpx.Message(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, ErrRateLimited):
			httpx.Message(w, http.StatusTooManyRequests, err.Error())
		default:
			log.Printf("login failed: %v", err)
			httpx.Message(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}
