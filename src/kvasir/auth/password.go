package auth

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"

	"github.com/kvasir-auth/kvasir/src/common/errors"
)

// Bcrypt cost bounds for new password hashes
const (
	MinHashCost     = bcrypt.MinCost
	MaxHashCost     = bcrypt.MaxCost
	DefaultHashCost = bcrypt.DefaultCost
)

// legacyDefaultIterations is applied when a legacy hash omits the
// iteration count from its method string.
const legacyDefaultIterations = 260000

// Scheme identifies the algorithm a stored password hash was produced with
type Scheme string

const (
	// SchemeBcrypt is the canonical scheme for all new passwords
	SchemeBcrypt Scheme = "bcrypt"
	// SchemeLegacy is the salted PBKDF2 format retained only for verifying
	// passwords stored before bcrypt was adopted. It is never used to hash.
	SchemeLegacy Scheme = "legacy"
)

// StoredHash is a stored password hash tagged with its scheme.
// Verification dispatches on the tag rather than re-sniffing the string.
type StoredHash struct {
	Scheme  Scheme
	Encoded string
}

// ParseHash classifies a stored hash string. Bcrypt hashes carry a "$2a$",
// "$2b$", or "$2y$" marker; everything else is treated as legacy.
func ParseHash(encoded string) StoredHash {
	for _, marker := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(encoded, marker) {
			return StoredHash{Scheme: SchemeBcrypt, Encoded: encoded}
		}
	}
	return StoredHash{Scheme: SchemeLegacy, Encoded: encoded}
}

// HashPassword generates a salted bcrypt hash of the password at the given cost
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", errors.ErrHashingFailed.WithCause(err)
	}
	return string(hashed), nil
}

// Verify reports whether the password matches the stored hash. A mismatch is
// (false, nil); an error means the stored hash could not be interpreted.
func (h StoredHash) Verify(password string) (bool, error) {
	switch h.Scheme {
	case SchemeBcrypt:
		err := bcrypt.CompareHashAndPassword([]byte(h.Encoded), []byte(password))
		if err == nil {
			return true, nil
		}
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, errors.ErrMalformedHash.WithCause(err)
	case SchemeLegacy:
		return verifyLegacy(password, h.Encoded)
	default:
		return false, errors.ErrMalformedHash.WithMessagef("unknown scheme %q", h.Scheme)
	}
}

// verifyLegacy checks a password against the legacy salted-hash format
// "pbkdf2:<digest>[:<iterations>]$<salt>$<hexdigest>".
func verifyLegacy(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 {
		return false, errors.ErrMalformedHash.WithMessage("legacy hash is not method$salt$digest")
	}
	method, salt, want := parts[0], parts[1], parts[2]

	mparts := strings.Split(method, ":")
	if mparts[0] != "pbkdf2" || len(mparts) > 3 {
		return false, errors.ErrMalformedHash.WithMessagef("unsupported legacy method %q", method)
	}

	digest := "sha256"
	if len(mparts) >= 2 {
		digest = mparts[1]
	}

	iterations := legacyDefaultIterations
	if len(mparts) == 3 {
		n, err := strconv.Atoi(mparts[2])
		if err != nil || n <= 0 {
			return false, errors.ErrMalformedHash.WithMessagef("bad iteration count %q", mparts[2])
		}
		iterations = n
	}

	var newHash func() hash.Hash
	switch digest {
	case "sha256":
		newHash = sha256.New
	case "sha1":
		newHash = sha1.New
	default:
		return false, errors.ErrMalformedHash.WithMessagef("unsupported legacy digest %q", digest)
	}

	derived := pbkdf2.Key([]byte(password), []byte(salt), iterations, newHash().Size(), newHash)
	got := hex.EncodeToString(derived)

	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1, nil
}
