package errors

// Common error codes used across domains
const (
	CodeNotFound      Code = "not_found"
	CodeAlreadyExists Code = "already_exists"
	CodeConflict      Code = "conflict"
	CodeUnavailable   Code = "unavailable"
	CodeVerification  Code = "verification_failed"
	CodeInternal      Code = "internal_error"
)

// ============================================================================
// Database Errors
// ============================================================================

var (
	// ErrDatabaseUnavailable is returned when the store is not reachable or not configured
	ErrDatabaseUnavailable = New(DomainDatabase, CodeUnavailable,
		"Database not available")

	// ErrDatabaseTransaction is returned when a transaction cannot be started or committed
	ErrDatabaseTransaction = New(DomainDatabase, "transaction_failed",
		"Database transaction failed")

	// ErrDatabaseQuery is returned when a query or mutation fails unexpectedly
	ErrDatabaseQuery = New(DomainDatabase, "query_failed",
		"Database query failed")
)

// ============================================================================
// Authentication Errors
// ============================================================================

var (
	// ErrInvalidCredentials is returned when authentication fails.
	// The caller is never told whether the account was missing, inactive,
	// or the password wrong; the distinction lives in the logs only.
	ErrInvalidCredentials = New(DomainAuth, CodeVerification,
		"Invalid credentials")

	// ErrMalformedHash is returned when a stored password hash cannot be parsed
	ErrMalformedHash = New(DomainAuth, "malformed_hash",
		"Malformed password hash")

	// ErrHashingFailed is returned when generating a password hash fails
	ErrHashingFailed = New(DomainAuth, "hashing_failed",
		"Password hashing failed")
)

// ============================================================================
// User Errors
// ============================================================================

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = New(DomainUser, CodeNotFound,
		"User not found")

	// ErrEmailAlreadyExists is returned when the email is already registered
	ErrEmailAlreadyExists = New(DomainUser, "email_exists",
		"Email already exists")
)

// ============================================================================
// Role Errors
// ============================================================================

var (
	// ErrRoleNotFound is returned when a role cannot be found
	ErrRoleNotFound = New(DomainRole, CodeNotFound,
		"Role not found")

	// ErrRoleAlreadyExists is returned when trying to create a role whose name is taken
	ErrRoleAlreadyExists = New(DomainRole, CodeAlreadyExists,
		"Role already exists")
)
