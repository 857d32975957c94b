package security

import (
	"log/slog"

	"github.com/yourorg/storefront/internal/domain"
)

// Permission represents an action permission.
type Permission string

const (
	PermPlaceOrder      Permission = "place_order"
	PermCancelOwnOrder  Permission = "cancel_own_order"
	PermUpdateOrder     Permission = "update_order_status"
	PermManageInventory Permission = "manage_inventory"
	PermViewInventory   Permission = "view_inventory"
	PermManageUsers     Permission = "manage_users"
	PermViewAuditLog    Permission = "view_audit_log"
)

// RolePermissions maps platform roles to their permissions. Retailers and
// wholesalers are both sellers; only admins manage other users.
var RolePermissions = map[domain.Role][]Permission{
	domain.RoleCustomer: {
		PermPlaceOrder,
		PermCancelOwnOrder,
		PermViewInventory,
	},
	domain.RoleRetailer: {
		PermPlaceOrder,
		PermCancelOwnOrder,
		PermUpdateOrder,
		PermManageInventory,
		PermViewInventory,
	},
	domain.RoleWholesaler: {
		PermUpdateOrder,
		PermManageInventory,
		PermViewInventory,
	},
	domain.RoleAdmin: {
		PermPlaceOrder,
		PermCancelOwnOrder,
		PermUpdateOrder,
		PermManageInventory,
		PermViewInventory,
		PermManageUsers,
		PermViewAuditLog,
	},
}

// AuthorizationService handles authorization checks.
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service.
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{logger: logger}
}

// HasPermission checks if a role has a specific permission.
func (as *AuthorizationService) HasPermission(role domain.Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}
	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Require logs and reports a denied check in one step.
func (as *AuthorizationService) Require(role domain.Role, permission Permission, userID string) bool {
	if as.HasPermission(role, permission) {
		return true
	}
	as.logger.Warn("authorization denied",
		slog.String("user_id", userID),
		slog.String("role", string(role)),
		slog.String("permission", string(permission)),
	)
	return false
}
