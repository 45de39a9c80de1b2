package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Signer binds session ids to the session secret.
type Signer struct {
	key []byte
}

// NewSigner creates a signer for secret.
func NewSigner(secret []byte) Signer {
	return Signer{key: secret}
}

// Sign returns the cookie value for id.
func (s Signer) Sign(id string) string {
	return id + "." + hex.EncodeToString(s.mac(id))
}

// Unsign verifies a cookie value and returns the session id it carries.
func (s Signer) Unsign(value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return "", false
	}
	if !hmac.Equal(got, s.mac(id)) {
		return "", false
	}
	return id, true
}

func (s Signer) mac(id string) []byte {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(id))
	return h.Sum(nil)
}
