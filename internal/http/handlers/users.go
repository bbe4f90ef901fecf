package handlers

import (
	"log/slog"
	"net/http"

	"github.com/finanbot/finanbot/internal/auth"
	"github.com/finanbot/finanbot/internal/http/respond"
	"github.com/finanbot/finanbot/internal/middleware"
	"github.com/finanbot/finanbot/internal/storage"
)

// UsersHandler owns admin-only user management endpoints.
type UsersHandler struct {
	store  storage.UserStore
	tokens *auth.TokenManager
}

// NewUsersHandler constructs the handler.
func NewUsersHandler(store storage.UserStore, tokens *auth.TokenManager) *UsersHandler {
	return &UsersHandler{store: store, tokens: tokens}
}

// Register attaches admin routes to the mux.
func (h *UsersHandler) Register(mux *http.ServeMux) {
	mux.Handle("GET /v1/users",
		middleware.RequireAdmin(h.tokens, h.store, http.HandlerFunc(h.handleList)))
}

func (h *UsersHandler) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "list users failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	respond.JSON(w, http.StatusOK, "users", users)
}
