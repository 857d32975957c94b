package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/storefront/internal/domain"
	"github.com/yourorg/storefront/internal/security"
	"github.com/yourorg/storefront/internal/security/middleware"
	"github.com/yourorg/storefront/internal/service"
)

// UserHandler serves the account endpoints.
type UserHandler struct {
	authService *service.AuthService
	authz       *security.AuthorizationService
	logger      *slog.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(authService *service.AuthService, authz *security.AuthorizationService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{authService: authService, authz: authz, logger: logger}
}

// Me handles GET /api/users/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserFromContext(r.Context())
	user, err := h.authService.GetUser(r.Context(), userID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "ok", user)
}

// UpdateProfile handles PUT /api/users/me/profile. The payload is decoded
// against the caller's own role.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, h.logger, domain.ErrInvalidToken)
		return
	}

	var raw json.RawMessage
	if err := decodeJSON(r, &raw); err != nil {
		respondError(w, h.logger, err)
		return
	}

	profile, err := domain.UnmarshalProfile(claims.Role, raw)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	user, err := h.authService.UpdateProfile(r.Context(), claims.UserID, profile)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respond(w, http.StatusOK, "profile updated", user)
}

// Deactivate handles DELETE /api/users/{id}. Users may deactivate themselves;
// anyone else requires the manage-users permission.
func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, h.logger, domain.ErrInvalidToken)
		return
	}

	targetID := r.PathValue("id")
	if targetID != claims.UserID {
		if !h.authz.Require(claims.Role, security.PermManageUsers, claims.UserID) {
			respondError(w, h.logger, domain.ErrForbidden)
			return
		}
	}

	if err := h.authService.Deactivate(r.Context(), targetID); err != nil {
		respondError(w, h.logger, err)
		return
	}

	respond(w, http.StatusOK, "account deactivated", nil)
}
