package auth

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/kvasir-auth/kvasir/src/common/errors"
)

// The helpers in this file run inside a transaction owned by the store
// gateway. They return structured errors; the managers match on the error
// kind and translate it into the operation's negative result.

const userColumns = "id, email, password_hash, is_active, is_verified, last_login, created_at, updated_at"

func scanUser(row *sql.Row) (*User, error) {
	user := &User{}
	var lastLogin sql.NullTime

	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash,
		&user.IsActive, &user.IsVerified, &lastLogin,
		&user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.ErrDatabaseQuery.WithCause(err)
	}

	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}
	return user, nil
}

func findUserByEmail(tx *sql.Tx, email string) (*User, error) {
	return scanUser(tx.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE email = ?", email))
}

// findActiveUserByEmail matches email AND is_active; an inactive account is
// indistinguishable from a missing one.
func findActiveUserByEmail(tx *sql.Tx, email string) (*User, error) {
	return scanUser(tx.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE email = ? AND is_active = 1", email))
}

func findUserByID(tx *sql.Tx, id string) (*User, error) {
	return scanUser(tx.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE id = ?", id))
}

func insertUser(tx *sql.Tx, user *User) error {
	_, err := tx.Exec(`
		INSERT INTO users (id, email, password_hash, is_active, is_verified, last_login, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, NULL, ?, ?)
	`, user.ID, user.Email, user.PasswordHash, user.IsActive, user.IsVerified,
		user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return errors.ErrDatabaseQuery.WithCause(err)
	}
	return nil
}

func setLastLogin(tx *sql.Tx, id string, when time.Time) error {
	if _, err := tx.Exec("UPDATE users SET last_login = ? WHERE id = ?", when, id); err != nil {
		return errors.ErrDatabaseQuery.WithCause(err)
	}
	return nil
}

func setPasswordHash(tx *sql.Tx, id, passwordHash string, when time.Time) error {
	if _, err := tx.Exec("UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?",
		passwordHash, when, id); err != nil {
		return errors.ErrDatabaseQuery.WithCause(err)
	}
	return nil
}

func countUsers(tx *sql.Tx) (int, error) {
	var count int
	if err := tx.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, errors.ErrDatabaseQuery.WithCause(err)
	}
	return count, nil
}

const roleColumns = "id, name, permissions, created_at, updated_at"

func scanRole(row *sql.Row) (*Role, error) {
	role := &Role{}
	var permissions string

	err := row.Scan(&role.ID, &role.Name, &permissions, &role.CreatedAt, &role.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.ErrRoleNotFound
	}
	if err != nil {
		return nil, errors.ErrDatabaseQuery.WithCause(err)
	}

	if err := decodePermissions(permissions, role); err != nil {
		return nil, err
	}
	return role, nil
}

func decodePermissions(raw string, role *Role) error {
	role.Permissions = map[string]interface{}{}
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), &role.Permissions); err != nil {
		return errors.ErrDatabaseQuery.WithCause(err)
	}
	return nil
}

func findRoleByName(tx *sql.Tx, name string) (*Role, error) {
	return scanRole(tx.QueryRow(
		"SELECT "+roleColumns+" FROM roles WHERE name = ?", name))
}

// insertRole inserts the role and fills in its store-assigned ID
func insertRole(tx *sql.Tx, role *Role) error {
	permissions, err := json.Marshal(role.Permissions)
	if err != nil {
		return errors.ErrDatabaseQuery.WithCause(err)
	}

	result, err := tx.Exec(`
		INSERT INTO roles (name, permissions, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, role.Name, string(permissions), role.CreatedAt, role.UpdatedAt)
	if err != nil {
		return errors.ErrDatabaseQuery.WithCause(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errors.ErrDatabaseQuery.WithCause(err)
	}
	role.ID = id
	return nil
}

func listRoles(tx *sql.Tx) ([]Role, error) {
	rows, err := tx.Query("SELECT " + roleColumns + " FROM roles ORDER BY name ASC")
	if err != nil {
		return nil, errors.ErrDatabaseQuery.WithCause(err)
	}
	defer rows.Close()

	return collectRoles(rows)
}

func listRolesForUser(tx *sql.Tx, userID string) ([]Role, error) {
	rows, err := tx.Query(`
		SELECT r.id, r.name, r.permissions, r.created_at, r.updated_at
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = ?
		ORDER BY r.name ASC
	`, userID)
	if err != nil {
		return nil, errors.ErrDatabaseQuery.WithCause(err)
	}
	defer rows.Close()

	return collectRoles(rows)
}

func collectRoles(rows *sql.Rows) ([]Role, error) {
	roles := []Role{}
	for rows.Next() {
		var role Role
		var permissions string
		if err := rows.Scan(&role.ID, &role.Name, &permissions,
			&role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, errors.ErrDatabaseQuery.WithCause(err)
		}
		if err := decodePermissions(permissions, &role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.ErrDatabaseQuery.WithCause(err)
	}
	return roles, nil
}

func userRoleExists(tx *sql.Tx, userID string, roleID int64) (bool, error) {
	var count int
	err := tx.QueryRow("SELECT COUNT(*) FROM user_roles WHERE user_id = ? AND role_id = ?",
		userID, roleID).Scan(&count)
	if err != nil {
		return false, errors.ErrDatabaseQuery.WithCause(err)
	}
	return count > 0, nil
}

func insertUserRole(tx *sql.Tx, userID string, roleID int64, when time.Time) error {
	_, err := tx.Exec(`
		INSERT INTO user_roles (user_id, role_id, created_at)
		VALUES (?, ?, ?)
	`, userID, roleID, when)
	if err != nil {
		return errors.ErrDatabaseQuery.WithCause(err)
	}
	return nil
}
