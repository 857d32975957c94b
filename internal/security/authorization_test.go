package security

import (
	"testing"

	"github.com/yourorg/storefront/internal/domain"
)

func TestRolePermissions(t *testing.T) {
	as := NewAuthorizationService(nil)

	cases := []struct {
		role domain.Role
		perm Permission
		want bool
	}{
		{domain.RoleCustomer, PermPlaceOrder, true},
		{domain.RoleCustomer, PermManageInventory, false},
		{domain.RoleRetailer, PermManageInventory, true},
		{domain.RoleRetailer, PermManageUsers, false},
		{domain.RoleWholesaler, PermManageInventory, true},
		{domain.RoleWholesaler, PermPlaceOrder, false},
		{domain.RoleAdmin, PermManageUsers, true},
		{domain.Role("GHOST"), PermPlaceOrder, false},
	}
	for _, tc := range cases {
		if got := as.HasPermission(tc.role, tc.perm); got != tc.want {
			t.Fatalf("%s/%s: expected %v, got %v", tc.role, tc.perm, tc.want, got)
		}
	}
}
