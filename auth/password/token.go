package password

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// GenerateToken creates a cryptographically secure random token of the
// specified byte length, returned hex encoded. Used for session ids.
func GenerateToken(length int) (string, error) {
	b, err := generateRandomBytes(length)
	if err != nil {
		return "", fmt.Errorf("password: generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateSecret returns length random bytes. Used for process-lifetime
// fallback secrets when none is configured.
func GenerateSecret(length int) ([]byte, error) {
	b, err := generateRandomBytes(length)
	if err != nil {
		return nil, fmt.Errorf("password: generate secret: %w", err)
	}
	return b, nil
}

// generateRandomBytes returns cryptographically secure random bytes.
func generateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, err
	}
	return b, nil
}
