package auth

import (
	"database/sql"
	"time"

	"github.com/kvasir-auth/kvasir/src/common/errors"
)

// CreateUser creates a new account and returns a snapshot of it, or nil when
// the store is unavailable, the email is already taken, or the insert fails.
// The duplicate check inside the transaction is advisory; the store's UNIQUE
// constraint on email is the backstop against races from other processes, and
// a constraint violation surfaces here as nil like any other failure.
func (m *UserManager) CreateUser(email, password string, opts ...CreateOption) *User {
	if !m.db.Available() {
		log.Warn("database not available, cannot create user")
		return nil
	}

	options := defaultCreateOptions()
	for _, opt := range opts {
		opt(&options)
	}

	var created *User
	err := m.db.WithTx(func(tx *sql.Tx) error {
		_, err := findUserByEmail(tx, email)
		if err == nil {
			return errors.ErrEmailAlreadyExists
		}
		if !errors.Is(err, errors.ErrUserNotFound) {
			return err
		}

		passwordHash := password
		if !options.preHashed {
			passwordHash, err = HashPassword(password, m.cost)
			if err != nil {
				return err
			}
		}

		user := NewUser(email, passwordHash, options.active, options.verified)
		if err := insertUser(tx, user); err != nil {
			return err
		}

		created = user
		return nil
	})
	if err != nil {
		if errors.Is(err, errors.ErrEmailAlreadyExists) {
			log.Warn("user already exists", "email", email)
		} else {
			log.Error("failed to create user", "email", email, "error", err)
		}
		return nil
	}

	log.Info("user created", "email", email)
	return created
}

// AuthenticateUser verifies the credentials of an active account. On success
// it records the login time and returns a detached snapshot of the account's
// public fields; on every failure path (unknown email, inactive account,
// wrong password, malformed hash, store failure) it returns nil. The reason
// appears only in the logs, never in the return value.
func (m *UserManager) AuthenticateUser(email, password string) *User {
	if !m.db.Available() {
		return nil
	}

	var snapshot *User
	err := m.db.WithTx(func(tx *sql.Tx) error {
		user, err := findActiveUserByEmail(tx, email)
		if err != nil {
			return err
		}

		valid, err := ParseHash(user.PasswordHash).Verify(password)
		if err != nil {
			log.Error("password verification error", "email", email, "error", err)
			valid = false
		}
		if !valid {
			return errors.ErrInvalidCredentials
		}

		now := time.Now().UTC()
		if err := setLastLogin(tx, user.ID, now); err != nil {
			return err
		}
		user.LastLogin = &now

		// Copy the public fields out before the transaction is released;
		// the snapshot carries no reference into the unit of work.
		snapshot = &User{
			ID:         user.ID,
			Email:      user.Email,
			IsActive:   user.IsActive,
			IsVerified: user.IsVerified,
			LastLogin:  user.LastLogin,
			CreatedAt:  user.CreatedAt,
			UpdatedAt:  user.UpdatedAt,
		}
		return nil
	})
	if err != nil {
		log.Warn("authentication failed", "email", email, "error", err)
		return nil
	}

	log.Info("user authenticated", "email", email)
	return snapshot
}

// GetUserByEmail retrieves a user by email address. The caller cannot tell
// an unavailable store, a missing user, and a query failure apart; all are nil.
func (m *UserManager) GetUserByEmail(email string) *User {
	if !m.db.Available() {
		return nil
	}

	var found *User
	err := m.db.WithTx(func(tx *sql.Tx) error {
		user, err := findUserByEmail(tx, email)
		if err != nil {
			return err
		}
		found = user
		return nil
	})
	if err != nil {
		if !errors.Is(err, errors.ErrUserNotFound) {
			log.Error("failed to retrieve user", "email", email, "error", err)
		}
		return nil
	}
	return found
}

// GetUserByID retrieves a user by account ID, with the same nil contract
// as GetUserByEmail.
func (m *UserManager) GetUserByID(id string) *User {
	if !m.db.Available() {
		return nil
	}

	var found *User
	err := m.db.WithTx(func(tx *sql.Tx) error {
		user, err := findUserByID(tx, id)
		if err != nil {
			return err
		}
		found = user
		return nil
	})
	if err != nil {
		if !errors.Is(err, errors.ErrUserNotFound) {
			log.Error("failed to retrieve user", "id", id, "error", err)
		}
		return nil
	}
	return found
}

// GetUserRoles returns the roles granted to a user. Unavailable store,
// unknown user, and query failure all yield an empty list.
func (m *UserManager) GetUserRoles(userID string) []Role {
	if !m.db.Available() {
		return []Role{}
	}

	var roles []Role
	err := m.db.WithTx(func(tx *sql.Tx) error {
		var err error
		roles, err = listRolesForUser(tx, userID)
		return err
	})
	if err != nil {
		log.Error("failed to retrieve user roles", "user_id", userID, "error", err)
		return []Role{}
	}
	return roles
}

// UpdatePassword overwrites the stored password hash for the account with
// the given email. The new value must already be hashed with the canonical
// scheme; this operation never hashes. Returns false when the store is
// unavailable, the account is missing, or the update fails.
func (m *UserManager) UpdatePassword(email, newPasswordHash string) bool {
	if !m.db.Available() {
		return false
	}

	err := m.db.WithTx(func(tx *sql.Tx) error {
		user, err := findUserByEmail(tx, email)
		if err != nil {
			return err
		}
		return setPasswordHash(tx, user.ID, newPasswordHash, time.Now().UTC())
	})
	if err != nil {
		if errors.Is(err, errors.ErrUserNotFound) {
			log.Warn("user not found for password update", "email", email)
		} else {
			log.Error("failed to update password", "email", email, "error", err)
		}
		return false
	}

	log.Info("password updated", "email", email)
	return true
}

// CountUsers returns the total number of accounts, or zero when the store
// is unavailable or the query fails.
func (m *UserManager) CountUsers() int {
	if !m.db.Available() {
		return 0
	}

	var count int
	err := m.db.WithTx(func(tx *sql.Tx) error {
		var err error
		count, err = countUsers(tx)
		return err
	})
	if err != nil {
		log.Error("failed to count users", "error", err)
		return 0
	}
	return count
}
