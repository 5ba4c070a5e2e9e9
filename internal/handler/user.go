package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/sheks-house/storefront/internal/domain/user"
)

type userView struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Role    string `json:"role"`
}

func viewUser(u *user.User) userView {
	return userView{ID: u.ID, Email: u.Email, Name: u.Name, Surname: u.Surname, Role: u.Role}
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Surname  string `json:"surname"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "validation_error", "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		respondError(w, r, http.StatusBadRequest, "validation_error", "a valid email is required")
		return
	}
	if len(req.Password) < 8 {
		respondError(w, r, http.StatusBadRequest, "validation_error", "password must be at least 8 characters")
		return
	}

	hash, err := user.HashPassword(req.Password)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "internal_error", "could not create account")
		return
	}

	u := &user.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Surname:      req.Surname,
		Role:         user.RoleCustomer,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.users.Create(r.Context(), u); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			respondError(w, r, http.StatusConflict, "validation_error", "email already registered")
			return
		}
		respondError(w, r, http.StatusInternalServerError, "internal_error", "could not create account")
		return
	}

	token, err := h.tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "internal_error", "could not issue token")
		return
	}

	respondJSON(w, r, http.StatusCreated, map[string]any{
		"token": token,
		"user":  viewUser(u),
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "validation_error", "invalid request body")
		return
	}

	u, err := h.users.GetByEmail(r.Context(), strings.TrimSpace(req.Email))
	if errors.Is(err, user.ErrNotFound) {
		// Same response as a wrong password: do not leak which emails exist.
		respondError(w, r, http.StatusUnauthorized, "invalid_credentials", user.ErrInvalidCredentials.Error())
		return
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "internal_error", "could not log in")
		return
	}
	if !u.CheckPassword(req.Password) {
		respondError(w, r, http.StatusUnauthorized, "invalid_credentials", user.ErrInvalidCredentials.Error())
		return
	}

	token, err := h.tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "internal_error", "could not issue token")
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]any{
		"token": token,
		"user":  viewUser(u),
	})
}
