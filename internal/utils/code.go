package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateToken returns a URL-safe opaque token built from n random bytes.
// Used for device API keys and AR session tokens.
func GenerateToken(n int) (string, error) {
	if n <= 0 {
		n = 48
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
