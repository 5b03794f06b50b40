package authz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/prato-next/internal/constants"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc
}

func TestEnforceStaffWithRolePolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("expeditor", "/orders/:id", "GET"); err != nil {
		t.Fatalf("grant role policy failed: %v", err)
	}
	if err := svc.SetStaffRoles(1, []string{"expeditor"}); err != nil {
		t.Fatalf("set staff roles failed: %v", err)
	}

	allow, err := svc.EnforceStaff(1, "/api/v1/orders/42", "get")
	if err != nil {
		t.Fatalf("enforce allow failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected allow=true")
	}

	allow, err = svc.EnforceStaff(1, "/api/v1/orders/42", "POST")
	if err != nil {
		t.Fatalf("enforce deny failed: %v", err)
	}
	if allow {
		t.Fatalf("expected allow=false")
	}
}

func TestSetStaffRolesOverride(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("expeditor", "/orders", "GET"); err != nil {
		t.Fatalf("grant expeditor policy failed: %v", err)
	}
	if err := svc.GrantRolePolicy("auditor", "/audit-logs", "GET"); err != nil {
		t.Fatalf("grant auditor policy failed: %v", err)
	}

	if err := svc.SetStaffRoles(2, []string{"expeditor"}); err != nil {
		t.Fatalf("set first role failed: %v", err)
	}
	roles, err := svc.GetStaffRoles(2)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:expeditor" {
		t.Fatalf("roles want [role:expeditor], got=%v", roles)
	}

	if err := svc.SetStaffRoles(2, []string{"auditor"}); err != nil {
		t.Fatalf("set second role failed: %v", err)
	}
	roles, err = svc.GetStaffRoles(2)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:auditor" {
		t.Fatalf("roles want [role:auditor], got=%v", roles)
	}

	allow, err := svc.EnforceStaff(2, "/orders", "GET")
	if err != nil {
		t.Fatalf("enforce old role failed: %v", err)
	}
	if allow {
		t.Fatalf("expected old role permission removed")
	}

	allow, err = svc.EnforceStaff(2, "/audit-logs", "GET")
	if err != nil {
		t.Fatalf("enforce new role failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected new role permission granted")
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/v1/orders/:id", want: "/orders/:id"},
		{in: "/orders/:id", want: "/orders/:id"},
		{in: "orders", want: "/orders"},
		{in: "/api/v1", want: "/"},
		{in: "", want: "/"},
	}
	for _, item := range cases {
		got := NormalizeObject(item.in)
		if got != item.want {
			t.Fatalf("normalize object failed, in=%q want=%q got=%q", item.in, item.want, got)
		}
	}
}

func TestBootstrapBuiltinRoles(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}

	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	wantRoles := map[string]bool{
		"role:customer":   true,
		"role:kitchen":    true,
		"role:dispatcher": true,
		"role:driver":     true,
		"role:waiter":     true,
		"role:manager":    true,
	}
	for _, role := range roles {
		delete(wantRoles, role)
	}
	if len(wantRoles) != 0 {
		t.Fatalf("builtin roles missing: %v", wantRoles)
	}
}

func TestEnforceTransitionMatrix(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}

	cases := []struct {
		role   string
		status string
		want   bool
	}{
		{role: constants.RoleKitchen, status: constants.OrderStatusPreparing, want: true},
		{role: constants.RoleKitchen, status: constants.OrderStatusReady, want: true},
		{role: constants.RoleKitchen, status: constants.OrderStatusDispatched, want: false},
		{role: constants.RoleDispatcher, status: constants.OrderStatusDispatched, want: true},
		{role: constants.RoleDispatcher, status: constants.OrderStatusDelivered, want: false},
		{role: constants.RoleDriver, status: constants.OrderStatusDelivered, want: true},
		{role: constants.RoleCustomer, status: constants.OrderStatusCancelled, want: true},
		{role: constants.RoleCustomer, status: constants.OrderStatusPreparing, want: false},
		{role: constants.RoleManager, status: constants.OrderStatusPreparing, want: true},
		{role: constants.RoleManager, status: constants.OrderStatusCancelled, want: true},
	}
	for _, item := range cases {
		allow, err := svc.EnforceTransition(item.role, item.status)
		if err != nil {
			t.Fatalf("enforce transition failed, role=%s status=%s: %v", item.role, item.status, err)
		}
		if allow != item.want {
			t.Fatalf("transition role=%s status=%s want=%v got=%v", item.role, item.status, item.want, allow)
		}
	}
}

func TestWaiterInheritsKitchen(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}

	allow, err := svc.EnforceRole(constants.RoleWaiter, "/ingredients", "GET")
	if err != nil {
		t.Fatalf("enforce inherited policy failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected waiter to inherit kitchen ingredient access")
	}

	allow, err = svc.EnforceTransition(constants.RoleWaiter, constants.OrderStatusPreparing)
	if err != nil {
		t.Fatalf("enforce inherited transition failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected waiter to inherit kitchen transitions")
	}

	allow, err = svc.EnforceTransition(constants.RoleWaiter, constants.OrderStatusDispatched)
	if err != nil {
		t.Fatalf("enforce out-of-scope transition failed: %v", err)
	}
	if allow {
		t.Fatalf("expected waiter denied dispatch transition")
	}
}

func TestRevokeRolePolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("expeditor", "/orders", "GET"); err != nil {
		t.Fatalf("grant policy failed: %v", err)
	}

	policies, err := svc.GetRolePolicies("expeditor")
	if err != nil {
		t.Fatalf("get policies failed: %v", err)
	}
	if len(policies) != 1 || policies[0].Object != "/orders" || policies[0].Action != "GET" {
		t.Fatalf("policies want [/orders GET], got=%v", policies)
	}

	if err := svc.RevokeRolePolicy("expeditor", "/orders", "GET"); err != nil {
		t.Fatalf("revoke policy failed: %v", err)
	}
	policies, err = svc.GetRolePolicies("expeditor")
	if err != nil {
		t.Fatalf("get policies after revoke failed: %v", err)
	}
	if len(policies) != 0 {
		t.Fatalf("policies want empty after revoke, got=%v", policies)
	}
}

func TestDeleteRoleRemovesAssignments(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("auditor", "/audit-logs", "GET"); err != nil {
		t.Fatalf("grant policy failed: %v", err)
	}
	if err := svc.SetStaffRoles(7, []string{"auditor"}); err != nil {
		t.Fatalf("set staff roles failed: %v", err)
	}

	if err := svc.DeleteRole("auditor"); err != nil {
		t.Fatalf("delete role failed: %v", err)
	}

	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	for _, role := range roles {
		if role == "role:auditor" {
			t.Fatalf("role still listed after delete: %v", roles)
		}
	}

	allow, err := svc.EnforceStaff(7, "/audit-logs", "GET")
	if err != nil {
		t.Fatalf("enforce after delete failed: %v", err)
	}
	if allow {
		t.Fatalf("expected staff access revoked with the role")
	}
}

func TestGetStaffPoliciesMergesRoleAndDirect(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("expeditor", "/orders", "GET"); err != nil {
		t.Fatalf("grant role policy failed: %v", err)
	}
	if err := svc.SetStaffRoles(9, []string{"expeditor"}); err != nil {
		t.Fatalf("set staff roles failed: %v", err)
	}

	policies, err := svc.GetStaffPolicies(9)
	if err != nil {
		t.Fatalf("get staff policies failed: %v", err)
	}
	if len(policies) != 1 {
		t.Fatalf("policies want 1 entry, got=%v", policies)
	}
	if policies[0].Subject != "role:expeditor" || policies[0].Object != "/orders" {
		t.Fatalf("unexpected policy: %+v", policies[0])
	}
}
