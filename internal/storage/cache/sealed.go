package cache

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
)

// Cipher names accepted by NewSealed.
const (
	CipherAuto     = "auto"
	CipherAESGCM   = "aes-gcm"
	CipherChaCha20 = "chacha20-poly1305"
)

// Sealed wraps a Cache and encrypts every value with an AEAD before it is
// stored. The cache key is bound as additional data, so a value copied under
// another key fails to open.
type Sealed struct {
	next Cache
	aead cipher.AEAD
	name string
}

// NewSealed wraps next. The key must be 32 bytes. An empty or "auto" cipher
// picks AES-GCM on platforms with AES instructions and ChaCha20-Poly1305
// elsewhere.
func NewSealed(next Cache, key []byte, name string) (*Sealed, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("cache encryption key must be 32 bytes, got %d", len(key))
	}
	if name == "" || name == CipherAuto {
		name = CipherChaCha20
		if hasAESNI() {
			name = CipherAESGCM
		}
	}

	var (
		aead cipher.AEAD
		err  error
	)
	switch name {
	case CipherAESGCM:
		var block cipher.Block
		block, err = aes.NewCipher(key)
		if err == nil {
			aead, err = cipher.NewGCM(block)
		}
	case CipherChaCha20:
		aead, err = chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("unknown cache cipher %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("cache cipher %s: %w", name, err)
	}

	return &Sealed{next: next, aead: aead, name: name}, nil
}

// CipherName reports the selected AEAD.
func (s *Sealed) CipherName() string {
	return s.name
}

// Get implements Cache. A value that fails to open is dropped and reported
// as a miss.
func (s *Sealed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	sealed, ok, err := s.next.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	plain, err := s.open(sealed, []byte(key))
	if err != nil {
		_ = s.next.Delete(ctx, key)
		return nil, false, nil
	}
	return plain, true, nil
}

// Set implements Cache.
func (s *Sealed) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("cache nonce: %w", err)
	}
	return s.next.Set(ctx, key, s.aead.Seal(nonce, nonce, value, []byte(key)), ttl)
}

// Delete implements Cache.
func (s *Sealed) Delete(ctx context.Context, key string) error {
	return s.next.Delete(ctx, key)
}

// Close closes the wrapped cache.
func (s *Sealed) Close() error {
	return s.next.Close()
}

func (s *Sealed) open(sealed, aad []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(sealed) < n+s.aead.Overhead() {
		return nil, errors.New("ciphertext too short")
	}
	return s.aead.Open(nil, sealed[:n], sealed[n:], aad)
}

func hasAESNI() bool {
	switch runtime.GOARCH {
	case "amd64", "arm64":
		return true
	default:
		return false
	}
}
