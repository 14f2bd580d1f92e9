package db

import (
	"database/sql"
	"testing"

	"github.com/kvasir-auth/kvasir/src/common/errors"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()

	database, err := New(Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return database
}

func TestWithTx_CommitOnSuccess(t *testing.T) {
	database := openTestDB(t)

	err := database.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO roles (name, permissions, created_at, updated_at)
			VALUES ('admin', '{}', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		`)
		return err
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}

	var count int
	err = database.WithTx(func(tx *sql.Tx) error {
		return tx.QueryRow("SELECT COUNT(*) FROM roles").Scan(&count)
	})
	if err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected committed row, got %d rows", count)
	}
}

func TestWithTx_RollbackOnError(t *testing.T) {
	database := openTestDB(t)

	sentinel := errors.New(errors.DomainInternal, "boom", "boom")
	err := database.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			INSERT INTO roles (name, permissions, created_at, updated_at)
			VALUES ('admin', '{}', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		`); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected the fn error to propagate, got: %v", err)
	}

	var count int
	err = database.WithTx(func(tx *sql.Tx) error {
		return tx.QueryRow("SELECT COUNT(*) FROM roles").Scan(&count)
	})
	if err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback, got %d rows", count)
	}
}

func TestSchema_UniqueConstraints(t *testing.T) {
	database := openTestDB(t)

	insert := func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO users (id, email, password_hash, is_active, is_verified, created_at, updated_at)
			VALUES ('id-1', 'a@x.com', 'hash', 1, 0, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		`)
		return err
	}
	if err := database.WithTx(insert); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	// Same email, different id: the store-level backstop rejects it
	err := database.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO users (id, email, password_hash, is_active, is_verified, created_at, updated_at)
			VALUES ('id-2', 'a@x.com', 'hash', 1, 0, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		`)
		return err
	})
	if err == nil {
		t.Fatal("expected unique constraint violation")
	}
}

func TestAvailable(t *testing.T) {
	database := openTestDB(t)

	if !database.Available() {
		t.Fatal("expected open database to be available")
	}

	if err := database.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if database.Available() {
		t.Fatal("expected closed database to be unavailable")
	}

	var nilDB *Database
	if nilDB.Available() {
		t.Fatal("expected nil database to be unavailable")
	}
}

func TestWithTx_UnavailableStore(t *testing.T) {
	database := openTestDB(t)
	if err := database.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	called := false
	err := database.WithTx(func(tx *sql.Tx) error {
		called = true
		return nil
	})
	if !errors.Is(err, errors.ErrDatabaseUnavailable) {
		t.Fatalf("expected ErrDatabaseUnavailable, got: %v", err)
	}
	if called {
		t.Fatal("fn must not run when the store is unavailable")
	}
}

func TestClose_Idempotent(t *testing.T) {
	database := openTestDB(t)

	if err := database.Close(); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := database.Close(); err != nil {
		t.Fatalf("second close failed: %v", err)
	}
}
