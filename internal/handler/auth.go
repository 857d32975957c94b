package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/storefront/internal/domain"
	"github.com/yourorg/storefront/internal/security/auth"
	"github.com/yourorg/storefront/internal/security/middleware"
	"github.com/yourorg/storefront/internal/service"
)

// RegisterRequest carries a new account. Profile is decoded according to Role.
type RegisterRequest struct {
	Email    string          `json:"email"`
	Phone    string          `json:"phone"`
	Password string          `json:"password"`
	Role     domain.Role     `json:"role"`
	Profile  json.RawMessage `json:"profile"`
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest carries a refresh token for rotation.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// AuthHandler handles registration, login and the token lifecycle endpoints.
type AuthHandler struct {
	authService *service.AuthService
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService *service.AuthService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{authService: authService, logger: logger}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	profile, err := domain.UnmarshalProfile(req.Role, req.Profile)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	result, err := h.authService.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		Role:     req.Role,
		Profile:  profile,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respond(w, http.StatusCreated, "registered", result)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respond(w, http.StatusOK, "logged in", result)
}

// Refresh handles POST /api/auth/refresh.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.RefreshToken == "" {
		respondError(w, h.logger, domain.ErrValidation)
		return
	}

	pair, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respond(w, http.StatusOK, "token refreshed", pair)
}

// Logout handles POST /api/auth/logout. The presented access token is
// blacklisted and the stored refresh token deleted.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserFromContext(r.Context())
	if userID == "" {
		respondError(w, h.logger, domain.ErrInvalidToken)
		return
	}

	tokenString, err := auth.ExtractToken(r.Header.Get("Authorization"))
	if err != nil {
		respondError(w, h.logger, domain.ErrInvalidToken)
		return
	}

	if err := h.authService.Logout(r.Context(), tokenString, userID); err != nil {
		respondError(w, h.logger, err)
		return
	}

	respond(w, http.StatusOK, "logged out", nil)
}

// LogoutAll handles POST /api/auth/logout-all, ending sessions on every
// device.
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserFromContext(r.Context())
	if userID == "" {
		respondError(w, h.logger, domain.ErrInvalidToken)
		return
	}

	if err := h.authService.LogoutAll(r.Context(), userID); err != nil {
		respondError(w, h.logger, err)
		return
	}

	respond(w, http.StatusOK, "logged out everywhere", nil)
}
