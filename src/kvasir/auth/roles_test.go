package auth

import (
	"testing"
)

func TestCreateRole(t *testing.T) {
	database := setupTestDB(t)
	roles := NewRoleManager(database)

	role := roles.CreateRole("admin", map[string]interface{}{
		"namespaces": []interface{}{"*"},
		"can_edit":   true,
	})
	if role == nil {
		t.Fatal("expected role to be created")
	}
	if role.ID == 0 {
		t.Fatal("expected store-assigned role ID")
	}

	// Permissions survive the JSON round trip through the store
	found := roles.GetRoleByName("admin")
	if found == nil {
		t.Fatal("expected to find role by name")
	}
	if found.ID != role.ID {
		t.Fatalf("expected role ID %d, got %d", role.ID, found.ID)
	}
	if canEdit, ok := found.Permissions["can_edit"].(bool); !ok || !canEdit {
		t.Fatalf("expected can_edit permission to persist, got %+v", found.Permissions)
	}
}

func TestCreateRole_NilPermissions(t *testing.T) {
	database := setupTestDB(t)
	roles := NewRoleManager(database)

	role := roles.CreateRole("viewer", nil)
	if role == nil {
		t.Fatal("expected role to be created")
	}
	if role.Permissions == nil || len(role.Permissions) != 0 {
		t.Fatalf("expected empty permissions mapping, got %+v", role.Permissions)
	}
}

func TestCreateRole_DuplicateName(t *testing.T) {
	database := setupTestDB(t)
	roles := NewRoleManager(database)

	if roles.CreateRole("admin", nil) == nil {
		t.Fatal("failed to create first role")
	}
	if roles.CreateRole("admin", nil) != nil {
		t.Fatal("expected duplicate role name to be rejected")
	}
}

func TestGetRoleByName_Unknown(t *testing.T) {
	database := setupTestDB(t)
	roles := NewRoleManager(database)

	if roles.GetRoleByName("nope") != nil {
		t.Fatal("expected nil for unknown role name")
	}
}

func TestAssignRoleToUser_Idempotent(t *testing.T) {
	database := setupTestDB(t)
	users := newTestUserManager(t, database)
	roles := NewRoleManager(database)

	user := users.CreateUser("a@x.com", "pw")
	if user == nil {
		t.Fatal("failed to create user")
	}
	role := roles.CreateRole("admin", nil)
	if role == nil {
		t.Fatal("failed to create role")
	}

	if !roles.AssignRoleToUser(user.ID, role.ID) {
		t.Fatal("expected first assignment to succeed")
	}
	// Repeated grant is a designed no-op success
	if !roles.AssignRoleToUser(user.ID, role.ID) {
		t.Fatal("expected repeated assignment to succeed")
	}

	granted := users.GetUserRoles(user.ID)
	if len(granted) != 1 {
		t.Fatalf("expected exactly one association, got %d", len(granted))
	}
	if granted[0].Name != "admin" {
		t.Fatalf("expected admin role, got %q", granted[0].Name)
	}
}

func TestAssignRoleToUser_ReferentialIntegrity(t *testing.T) {
	database := setupTestDB(t)
	roles := NewRoleManager(database)

	role := roles.CreateRole("admin", nil)
	if role == nil {
		t.Fatal("failed to create role")
	}

	// The store's FK constraint rejects the grant; surfaces as false
	if roles.AssignRoleToUser("no-such-user", role.ID) {
		t.Fatal("expected assignment to unknown user to fail")
	}
}

func TestGetUserRoles_MultipleAndEmpty(t *testing.T) {
	database := setupTestDB(t)
	users := newTestUserManager(t, database)
	roles := NewRoleManager(database)

	user := users.CreateUser("a@x.com", "pw")
	if user == nil {
		t.Fatal("failed to create user")
	}

	if granted := users.GetUserRoles(user.ID); len(granted) != 0 {
		t.Fatalf("expected no roles for fresh user, got %d", len(granted))
	}

	admin := roles.CreateRole("admin", nil)
	viewer := roles.CreateRole("viewer", nil)
	if admin == nil || viewer == nil {
		t.Fatal("failed to create roles")
	}
	if !roles.AssignRoleToUser(user.ID, admin.ID) || !roles.AssignRoleToUser(user.ID, viewer.ID) {
		t.Fatal("failed to assign roles")
	}

	granted := users.GetUserRoles(user.ID)
	if len(granted) != 2 {
		t.Fatalf("expected 2 roles, got %d", len(granted))
	}
}

func TestListRoles(t *testing.T) {
	database := setupTestDB(t)
	roles := NewRoleManager(database)

	if listed := roles.ListRoles(); len(listed) != 0 {
		t.Fatalf("expected no roles, got %d", len(listed))
	}

	roles.CreateRole("viewer", nil)
	roles.CreateRole("admin", nil)

	listed := roles.ListRoles()
	if len(listed) != 2 {
		t.Fatalf("expected 2 roles, got %d", len(listed))
	}
	// Ordered by name
	if listed[0].Name != "admin" || listed[1].Name != "viewer" {
		t.Fatalf("expected name ordering, got %q, %q", listed[0].Name, listed[1].Name)
	}
}

func TestRoleOperations_UnavailableStore(t *testing.T) {
	database := setupTestDB(t)
	roles := NewRoleManager(database)

	if err := database.Close(); err != nil {
		t.Fatalf("failed to close database: %v", err)
	}

	if roles.CreateRole("admin", nil) != nil {
		t.Fatal("expected CreateRole to return nil when store is unavailable")
	}
	if roles.AssignRoleToUser("user", 1) {
		t.Fatal("expected AssignRoleToUser to return false when store is unavailable")
	}
	if roles.GetRoleByName("admin") != nil {
		t.Fatal("expected GetRoleByName to return nil when store is unavailable")
	}
	if listed := roles.ListRoles(); len(listed) != 0 {
		t.Fatal("expected ListRoles to return an empty list when store is unavailable")
	}
}
