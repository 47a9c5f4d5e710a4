package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"doc-converter/internal/domain"
)

// SessionManager issues and revokes login sessions.
type SessionManager interface {
	SessionLoader
	Create(w http.ResponseWriter, r *http.Request, user *domain.User) (*domain.Session, error)
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	auth     domain.AuthService
	sessions SessionManager
	logger   domain.Logger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(auth domain.AuthService, sessions SessionManager, logger domain.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		sessions: sessions,
		logger:   logger,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks the credentials and starts a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.auth.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}

	if _, err := h.sessions.Create(w, r, user); err != nil {
		h.logger.Error("Failed to create session", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	h.logger.Info("User logged in", "user_id", user.ID, "username", user.Username)
	writeJSON(w, http.StatusOK, response{Success: true})
}

// Register creates an account. It does not log the user in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password); err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true})
}

// Logout clears the session and returns to the login page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), w, r); err != nil {
		h.logger.Warn("Failed to clear session", "error", err)
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}
