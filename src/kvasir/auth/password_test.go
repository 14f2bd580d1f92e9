package auth

import (
	"strings"
	"testing"

	"github.com/kvasir-auth/kvasir/src/common/errors"
)

// Hashes generated with the legacy implementation for compatibility checks
const (
	legacyHashSHA256      = "pbkdf2:sha256:260000$XvbJl29A$f589d0423394854d0643a582b52200b5243b6f7853258b5c9edcab9d32524ed5"
	legacyHashLowIter     = "pbkdf2:sha256:50000$gVYhCnzm$c01aa92ed3f5fafa6853dc142d649179333e4d97dcd348e6d2b742b76cff0a1a"
	legacyHashSHA1        = "pbkdf2:sha1:150000$abcd1234$0a2a4274327d54471aa3a956d1e38a00f7b7054c"
	legacyPasswordSHA256  = "correct horse"
	legacyPasswordLowIter = "s3cret!pw"
	legacyPasswordSHA1    = "legacy-pass"
)

func TestHashPassword_ProducesBcrypt(t *testing.T) {
	hashed, err := HashPassword("hunter2", MinHashCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if !strings.HasPrefix(hashed, "$2") {
		t.Fatalf("expected bcrypt marker, got %q", hashed)
	}

	parsed := ParseHash(hashed)
	if parsed.Scheme != SchemeBcrypt {
		t.Fatalf("expected bcrypt scheme, got %q", parsed.Scheme)
	}
}

func TestStoredHash_VerifyBcrypt(t *testing.T) {
	hashed, err := HashPassword("hunter2", MinHashCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	ok, err := ParseHash(hashed).Verify("hunter2")
	if err != nil {
		t.Fatalf("verify returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected correct password to verify")
	}

	ok, err = ParseHash(hashed).Verify("hunter3")
	if err != nil {
		t.Fatalf("verify returned error on mismatch: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password to fail verification")
	}
}

func TestParseHash_LegacyDetection(t *testing.T) {
	for _, encoded := range []string{legacyHashSHA256, legacyHashSHA1, "not-a-hash"} {
		if got := ParseHash(encoded).Scheme; got != SchemeLegacy {
			t.Fatalf("expected legacy scheme for %q, got %q", encoded, got)
		}
	}
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if got := ParseHash(prefix + "10$abc").Scheme; got != SchemeBcrypt {
			t.Fatalf("expected bcrypt scheme for prefix %q, got %q", prefix, got)
		}
	}
}

func TestStoredHash_VerifyLegacy(t *testing.T) {
	cases := []struct {
		name     string
		encoded  string
		password string
	}{
		{"sha256", legacyHashSHA256, legacyPasswordSHA256},
		{"sha256 low iterations", legacyHashLowIter, legacyPasswordLowIter},
		{"sha1", legacyHashSHA1, legacyPasswordSHA1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := ParseHash(tc.encoded).Verify(tc.password)
			if err != nil {
				t.Fatalf("verify returned error: %v", err)
			}
			if !ok {
				t.Fatal("expected legacy password to verify")
			}

			ok, err = ParseHash(tc.encoded).Verify("wrong password")
			if err != nil {
				t.Fatalf("verify returned error on mismatch: %v", err)
			}
			if ok {
				t.Fatal("expected wrong password to fail verification")
			}
		})
	}
}

func TestStoredHash_VerifyMalformedLegacy(t *testing.T) {
	cases := []struct {
		name    string
		encoded string
	}{
		{"no separators", "plainhash"},
		{"too many separators", "pbkdf2:sha256$a$b$c"},
		{"unknown method", "scrypt:sha256$salt$c01aa9"},
		{"unknown digest", "pbkdf2:md5:1000$salt$c01aa9"},
		{"bad iterations", "pbkdf2:sha256:many$salt$c01aa9"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := ParseHash(tc.encoded).Verify("whatever")
			if err == nil {
				t.Fatal("expected error for malformed hash")
			}
			if !errors.Is(err, errors.ErrMalformedHash) {
				t.Fatalf("expected ErrMalformedHash, got: %v", err)
			}
			if ok {
				t.Fatal("malformed hash must never verify")
			}
		})
	}
}
