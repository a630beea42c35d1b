package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Password hashing algorithms.
const (
	HashBcrypt   = "bcrypt"
	HashArgon2id = "argon2id"
)

// Argon2id parameters.
const (
	argon2Time    = 2
	argon2Memory  = 16 * 1024
	argon2Threads = 2
	argon2KeyLen  = 32
	argon2SaltLen = 16
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
}

// BcryptHasher hashes passwords with bcrypt.
type BcryptHasher struct {
	Cost int
}

// Hash implements PasswordHasher.
func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

// Verify implements PasswordHasher.
func (h BcryptHasher) Verify(password, encoded string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)) == nil
}

// Argon2Hasher hashes passwords with argon2id.
// Encoded form: $argon2id$v=19$m=16384,t=2,p=2$<salt>$<hash>
type Argon2Hasher struct{}

// Hash implements PasswordHasher.
func (Argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("argon2 salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argon2Memory, argon2Time, argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify implements PasswordHasher. Parameters are read from the encoded hash.
func (Argon2Hasher) Verify(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, iterations, memory, threads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// MultiHasher hashes with one algorithm and verifies any supported encoding,
// so existing users keep working after the configured algorithm changes.
type MultiHasher struct {
	primary PasswordHasher
	bcrypt  BcryptHasher
	argon2  Argon2Hasher
}

// NewPasswordHasher returns a hasher that creates hashes with algorithm.
func NewPasswordHasher(algorithm string, bcryptCost int) (*MultiHasher, error) {
	m := &MultiHasher{bcrypt: BcryptHasher{Cost: bcryptCost}}
	switch algorithm {
	case "", HashBcrypt:
		m.primary = m.bcrypt
	case HashArgon2id:
		m.primary = m.argon2
	default:
		return nil, fmt.Errorf("unknown password hash algorithm %q", algorithm)
	}
	return m, nil
}

// Hash implements PasswordHasher.
func (m *MultiHasher) Hash(password string) (string, error) {
	return m.primary.Hash(password)
}

// Verify implements PasswordHasher.
func (m *MultiHasher) Verify(password, encoded string) bool {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return m.argon2.Verify(password, encoded)
	case strings.HasPrefix(encoded, "$2a$"), strings.HasPrefix(encoded, "$2b$"), strings.HasPrefix(encoded, "$2y$"):
		return m.bcrypt.Verify(password, encoded)
	default:
		return false
	}
}
