package token

import (
	"crypto/rand"
	"encoding/base64"
)

// IDLength is the number of random bytes in an ID.
const IDLength = 16

// NewID returns a random URL-safe identifier of IDLength bytes.
// It is used as the JWT "jti" claim so that two tokens minted for the same
// subject within the same second still differ.
func NewID() (string, error) {
	return Generate(IDLength)
}

// Generate returns n random bytes encoded as unpadded base64url.
func Generate(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
