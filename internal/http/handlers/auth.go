package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/finanbot/finanbot/internal/auth"
	"github.com/finanbot/finanbot/internal/http/respond"
	"github.com/finanbot/finanbot/internal/middleware"
	"github.com/finanbot/finanbot/internal/models"
	"github.com/finanbot/finanbot/internal/models/dto"
	"github.com/finanbot/finanbot/internal/storage"
)

// AuthHandler owns registration, login, and profile endpoints.
type AuthHandler struct {
	store  storage.UserStore
	tokens *auth.TokenManager
	hasher *auth.Hasher
	ttl    time.Duration
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(store storage.UserStore, tokens *auth.TokenManager, hasher *auth.Hasher, ttl time.Duration) *AuthHandler {
	return &AuthHandler{store: store, tokens: tokens, hasher: hasher, ttl: ttl}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/users/register", h.handleRegister)
	mux.HandleFunc("POST /v1/users/login", h.handleLogin)
	mux.Handle("GET /v1/users/me",
		middleware.RequireUser(h.tokens, h.store, http.HandlerFunc(h.handleMe)))
	mux.Handle("PATCH /v1/users/me",
		middleware.RequireUser(h.tokens, h.store, http.HandlerFunc(h.handleUpdateMe)))
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := validateCredentials(req.Email, req.Password); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	passwordHash, err := h.hasher.HashPassword(req.Password)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user := models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: passwordHash,
		IsActive:     true,
	}
	created, err := h.store.CreateUser(r.Context(), user)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			respond.Error(w, http.StatusConflict, "email already registered")
		default:
			slog.ErrorContext(r.Context(), "create user failed", "error", err)
			respond.Error(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	respond.JSON(w, http.StatusCreated, "user created", created)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.authenticate(r, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respond.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		slog.ErrorContext(r.Context(), "login lookup failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}

	token, err := h.tokens.Issue(user.ID, nil, 0)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", dto.LoginResponse{
		TokenResponse: dto.TokenResponse{
			AccessToken: token,
			TokenType:   "bearer",
			ExpiresIn:   int(h.ttl.Seconds()),
		},
		User: user,
	})
}

// authenticate folds the unknown-email and wrong-password cases into one
// failure kind so responses cannot reveal whether the email exists.
func (h *AuthHandler) authenticate(r *http.Request, email, password string) (models.User, error) {
	user, err := h.store.UserByEmail(r.Context(), strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, auth.ErrInvalidCredentials
		}
		return models.User{}, err
	}
	if !h.hasher.VerifyPassword(password, user.PasswordHash) {
		return models.User{}, auth.ErrInvalidCredentials
	}
	return user, nil
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing user context")
		return
	}
	respond.JSON(w, http.StatusOK, "current user", user)
}

func (h *AuthHandler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing user context")
		return
	}

	var req dto.UserUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Password != nil {
		if err := validatePassword(*req.Password); err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		hash, err := h.hasher.HashPassword(*req.Password)
		if err != nil {
			respond.Error(w, http.StatusInternalServerError, "failed to hash password")
			return
		}
		user.PasswordHash = hash
	}

	updated, err := h.store.UpdateUser(r.Context(), user)
	if err != nil {
		slog.ErrorContext(r.Context(), "update user failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	respond.JSON(w, http.StatusOK, "user updated", updated)
}

func validateCredentials(email, password string) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		return errors.New("a valid email is required")
	}
	return validatePassword(password)
}

func validatePassword(password string) error {
	if len(password) < 8 || !utf8.ValidString(password) {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}
