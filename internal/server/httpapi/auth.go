package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/logging"
	"github.com/dmitrijs2005/daybook/internal/server/models"
	"github.com/dmitrijs2005/daybook/internal/server/services"
)

// AuthProvider is the slice of UserService the auth endpoints need.
type AuthProvider interface {
	Register(ctx context.Context, username string, salt, verifier []byte) (*models.User, error)
	GetSalt(ctx context.Context, userName string) ([]byte, error)
	Login(ctx context.Context, userName string, verifierCandidate []byte) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

// AuthHandler serves /api/auth. The server only ever sees the argon2id
// verifier, never the password.
type AuthHandler struct {
	users  AuthProvider
	logger logging.Logger
}

func NewAuthHandler(users AuthProvider, logger logging.Logger) *AuthHandler {
	return &AuthHandler{users: users, logger: logger}
}

type registerRequest struct {
	Username string `json:"username"`
	Salt     []byte `json:"salt"`
	Verifier []byte `json:"verifier"`
}

type loginRequest struct {
	Username string `json:"username"`
	Verifier []byte `json:"verifier"`
}

type saltRequest struct {
	Username string `json:"username"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "INVALID_REQUEST")
		return
	}
	if req.Username == "" || len(req.Salt) == 0 || len(req.Verifier) == 0 {
		writeError(w, http.StatusBadRequest, "Username, salt and verifier are required", "INVALID_REQUEST")
		return
	}

	user, err := h.users.Register(r.Context(), req.Username, req.Salt, req.Verifier)
	if err != nil {
		h.logger.Error(r.Context(), "registering user", "username", req.Username, "error", err)
		writeError(w, http.StatusConflict, "Username is already taken", "USERNAME_TAKEN")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": user.ID, "username": user.UserName})
}

func (h *AuthHandler) Salt(w http.ResponseWriter, r *http.Request) {
	var req saltRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		writeError(w, http.StatusBadRequest, "Username is required", "INVALID_REQUEST")
		return
	}

	salt, err := h.users.GetSalt(r.Context(), req.Username)
	if err != nil {
		h.logger.Error(r.Context(), "fetching salt", "username", req.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch salt", "INTERNAL")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"salt": salt})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "INVALID_REQUEST")
		return
	}

	pair, err := h.users.Login(r.Context(), req.Username, req.Verifier)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials", "INVALID_CREDENTIALS")
			return
		}
		h.logger.Error(r.Context(), "logging in", "username", req.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "Login failed", "INTERNAL")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "Invalid request body", "INVALID_REQUEST")
		return
	}

	pair, err := h.users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, common.ErrRefreshTokenExpired) {
			writeError(w, http.StatusUnauthorized, "Refresh token expired", "REFRESH_TOKEN_EXPIRED")
			return
		}
		writeError(w, http.StatusUnauthorized, "Invalid refresh token", "INVALID_REFRESH_TOKEN")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}
