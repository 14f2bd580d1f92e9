// Package auth provides account and role management for the kvasir
// credential subsystem: user creation, password authentication with a
// dual-scheme verification policy, and idempotent role grants.
//
// Every public operation is total over its declared return type: failures
// of any kind (conflict, not found, bad password, infrastructure) surface
// as the documented nil/false/empty value with the reason in the logs,
// never as an error to the caller.
package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/kvasir-auth/kvasir/src/common/logs"
	"github.com/kvasir-auth/kvasir/src/kvasir/db"
)

// Package-level logger, replaceable via SetLogger
var log = logs.NewDefault()

// SetLogger sets the package-level logger
func SetLogger(l *logs.Logger) {
	if l != nil {
		log = l
	}
}

// User represents a user account. Values returned by the managers are
// detached snapshots: plain copies taken before the transaction that
// produced them was released.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never expose in JSON
	IsActive     bool       `json:"is_active"`
	IsVerified   bool       `json:"is_verified"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewUser creates a new user with a generated UUID
func NewUser(email, passwordHash string, isActive, isVerified bool) *User {
	now := time.Now().UTC()
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     isActive,
		IsVerified:   isVerified,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Role represents a named permission set. The permissions payload is an
// open-ended mapping stored as JSON; the core does not interpret it.
type Role struct {
	ID          int64                  `json:"id"`
	Name        string                 `json:"name"`
	Permissions map[string]interface{} `json:"permissions"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// NewRole creates a new role. The ID is assigned by the store on insert.
func NewRole(name string, permissions map[string]interface{}) *Role {
	if permissions == nil {
		permissions = map[string]interface{}{}
	}
	now := time.Now().UTC()
	return &Role{
		Name:        name,
		Permissions: permissions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// UserRole represents a role grant, keyed by (user_id, role_id)
type UserRole struct {
	UserID    string    `json:"user_id"`
	RoleID    int64     `json:"role_id"`
	CreatedAt time.Time `json:"created_at"`
}

// UserManager handles user account operations
type UserManager struct {
	db   *db.Database
	cost int
}

// NewUserManager creates a new user manager using the default bcrypt cost
func NewUserManager(database *db.Database) *UserManager {
	return &UserManager{db: database, cost: DefaultHashCost}
}

// SetHashCost overrides the bcrypt cost used for new passwords.
// Out-of-range values fall back to the default cost.
func (m *UserManager) SetHashCost(cost int) {
	if cost < MinHashCost || cost > MaxHashCost {
		cost = DefaultHashCost
	}
	m.cost = cost
}

// RoleManager handles role operations
type RoleManager struct {
	db *db.Database
}

// NewRoleManager creates a new role manager
func NewRoleManager(database *db.Database) *RoleManager {
	return &RoleManager{db: database}
}

// CreateOption adjusts the defaults of UserManager.CreateUser
// (active, unverified, plain-text password).
type CreateOption func(*createOptions)

type createOptions struct {
	active    bool
	verified  bool
	preHashed bool
}

func defaultCreateOptions() createOptions {
	return createOptions{active: true}
}

// WithInactive creates the account with is_active=false.
// Inactive accounts never authenticate.
func WithInactive() CreateOption {
	return func(o *createOptions) { o.active = false }
}

// WithVerified creates the account with is_verified=true
func WithVerified() CreateOption {
	return func(o *createOptions) { o.verified = true }
}

// WithHashedPassword stores the password argument verbatim as the hash.
// The caller is trusted to have hashed it with the canonical scheme.
func WithHashedPassword() CreateOption {
	return func(o *createOptions) { o.preHashed = true }
}
