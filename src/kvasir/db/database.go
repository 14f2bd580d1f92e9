// Package db provides the credential store gateway for kvasir: a SQLite-backed
// database with schema management and scoped per-operation transactions.
package db

import (
	"database/sql"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kvasir-auth/kvasir/src/common/errors"
	"github.com/kvasir-auth/kvasir/src/common/paths"
)

// Database wraps the SQLite connection behind the store gateway contract:
// a zero-argument availability probe and scoped transactional units of work.
type Database struct {
	mu sync.RWMutex
	db *sql.DB
}

// Config holds the database configuration
type Config struct {
	// Path is the SQLite database file path. ":memory:" opens an
	// in-memory database (used by tests).
	Path string
}

// DefaultConfig returns a default database configuration
func DefaultConfig() Config {
	return Config{
		Path: "~/.kvasir/kvasir.db",
	}
}

// New opens the database, applies pragmas, and initializes the schema.
func New(cfg Config) (*Database, error) {
	var dsn string
	if cfg.Path == ":memory:" {
		// Shared cache mode so the connection pool sees one database
		dsn = "file::memory:?cache=shared&_busy_timeout=5000&_foreign_keys=on"
	} else {
		path := paths.Expand(cfg.Path)
		if err := paths.EnsureDir(path); err != nil {
			return nil, errors.ErrDatabaseUnavailable.WithCause(err)
		}
		// Foreign keys are a per-connection pragma; the DSN applies it to
		// every connection the pool opens
		dsn = "file:" + path + "?_busy_timeout=5000&_foreign_keys=on"
	}

	handle, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.ErrDatabaseUnavailable.WithCause(err)
	}

	// SQLite supports a single writer at a time
	handle.SetMaxOpenConns(1)

	database := &Database{db: handle}

	if err := database.initSchema(); err != nil {
		handle.Close()
		return nil, err
	}

	return database, nil
}

// initSchema creates the database tables
func (d *Database) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		is_verified BOOLEAN NOT NULL DEFAULT 0,
		last_login DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

	CREATE TABLE IF NOT EXISTS roles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		permissions TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_roles_name ON roles(name);

	CREATE TABLE IF NOT EXISTS user_roles (
		user_id TEXT NOT NULL,
		role_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, role_id),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (role_id) REFERENCES roles(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_user_roles_user ON user_roles(user_id);
	CREATE INDEX IF NOT EXISTS idx_user_roles_role ON user_roles(role_id);
	`

	if _, err := d.db.Exec(schema); err != nil {
		return errors.ErrDatabaseQuery.WithCause(err)
	}
	return nil
}

// Available reports whether the store can be reached. Every public operation
// in the managers checks this before touching the store; when it returns
// false, no transaction is acquired and nothing needs to be released.
func (d *Database) Available() bool {
	if d == nil {
		return false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.db != nil
}

// WithTx runs fn inside a single transactional unit of work. The transaction
// is committed when fn returns nil, rolled back when fn returns an error, and
// released on every exit path. The rollback after a successful commit is a no-op.
func (d *Database) WithTx(fn func(tx *sql.Tx) error) error {
	if !d.Available() {
		return errors.ErrDatabaseUnavailable
	}

	d.mu.RLock()
	handle := d.db
	d.mu.RUnlock()

	tx, err := handle.Begin()
	if err != nil {
		return errors.ErrDatabaseTransaction.WithCause(err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.ErrDatabaseTransaction.WithCause(err)
	}
	return nil
}

// Close releases the underlying connection. The database reports itself
// unavailable afterwards.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}
