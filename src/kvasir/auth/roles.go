package auth

import (
	"database/sql"
	"time"

	"github.com/kvasir-auth/kvasir/src/common/errors"
)

// CreateRole creates a new role with the given permissions payload and
// returns it with its store-assigned ID, or nil when the name is taken,
// the store is unavailable, or the insert fails. A nil permissions map
// creates the role with an empty payload.
func (m *RoleManager) CreateRole(name string, permissions map[string]interface{}) *Role {
	if !m.db.Available() {
		log.Warn("database not available, cannot create role")
		return nil
	}

	var created *Role
	err := m.db.WithTx(func(tx *sql.Tx) error {
		_, err := findRoleByName(tx, name)
		if err == nil {
			return errors.ErrRoleAlreadyExists
		}
		if !errors.Is(err, errors.ErrRoleNotFound) {
			return err
		}

		role := NewRole(name, permissions)
		if err := insertRole(tx, role); err != nil {
			return err
		}

		created = role
		return nil
	})
	if err != nil {
		if errors.Is(err, errors.ErrRoleAlreadyExists) {
			log.Warn("role already exists", "name", name)
		} else {
			log.Error("failed to create role", "name", name, "error", err)
		}
		return nil
	}

	log.Info("role created", "name", name)
	return created
}

// AssignRoleToUser grants a role to a user. The grant is idempotent:
// assigning an already-granted role is a no-op success. Referential
// integrity is left to the store's constraints; a violation surfaces
// as false. Returns false when the store is unavailable.
func (m *RoleManager) AssignRoleToUser(userID string, roleID int64) bool {
	if !m.db.Available() {
		return false
	}

	err := m.db.WithTx(func(tx *sql.Tx) error {
		exists, err := userRoleExists(tx, userID, roleID)
		if err != nil {
			return err
		}
		if exists {
			log.Info("user already has role", "user_id", userID, "role_id", roleID)
			return nil
		}
		return insertUserRole(tx, userID, roleID, time.Now().UTC())
	})
	if err != nil {
		log.Error("failed to assign role", "user_id", userID, "role_id", roleID, "error", err)
		return false
	}

	log.Info("role assigned", "user_id", userID, "role_id", roleID)
	return true
}

// GetRoleByName retrieves a role by name; nil on not-found, unavailable
// store, or query failure alike.
func (m *RoleManager) GetRoleByName(name string) *Role {
	if !m.db.Available() {
		return nil
	}

	var found *Role
	err := m.db.WithTx(func(tx *sql.Tx) error {
		role, err := findRoleByName(tx, name)
		if err != nil {
			return err
		}
		found = role
		return nil
	})
	if err != nil {
		if !errors.Is(err, errors.ErrRoleNotFound) {
			log.Error("failed to retrieve role", "name", name, "error", err)
		}
		return nil
	}
	return found
}

// ListRoles returns all roles ordered by name; empty on unavailable store
// or query failure.
func (m *RoleManager) ListRoles() []Role {
	if !m.db.Available() {
		return []Role{}
	}

	var roles []Role
	err := m.db.WithTx(func(tx *sql.Tx) error {
		var err error
		roles, err = listRoles(tx)
		return err
	})
	if err != nil {
		log.Error("failed to list roles", "error", err)
		return []Role{}
	}
	return roles
}
