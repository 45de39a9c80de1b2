// Package password provides password hashing, verification and strength checks.
//
// Hashes are derived with argon2id and a fresh random salt per call, and are
// encoded as hex(derivedKey) + "." + hex(salt):
//
//	hasher := password.NewArgon2Hasher()
//	encoded, err := hasher.Hash("Str0ng!Pass")
//	ok := hasher.Verify("Str0ng!Pass", encoded)
package password

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// separator joins the derived key and the salt. Hex never produces it.
const separator = "."

// Hasher defines the interface for password hashing and verification.
type Hasher interface {
	// Hash returns the encoded hash of the password.
	Hash(password string) (string, error)

	// Verify reports whether password matches the encoded hash.
	// A malformed hash never matches.
	Verify(password, encoded string) bool
}

// Argon2Hasher implements Hasher using argon2id.
type Argon2Hasher struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
	saltLen int
}

// Argon2Option configures the argon2id hasher.
type Argon2Option func(*Argon2Hasher)

// WithArgon2Time sets the number of iterations (default: 1).
func WithArgon2Time(t uint32) Argon2Option {
	return func(h *Argon2Hasher) { h.time = t }
}

// WithArgon2Memory sets the memory usage in KiB (default: 64*1024 = 64MB).
func WithArgon2Memory(m uint32) Argon2Option {
	return func(h *Argon2Hasher) { h.memory = m }
}

// WithArgon2Threads sets the parallelism (default: 4).
func WithArgon2Threads(t uint8) Argon2Option {
	return func(h *Argon2Hasher) { h.threads = t }
}

// WithKeyLength sets the derived key length in bytes (default: 32).
func WithKeyLength(n uint32) Argon2Option {
	return func(h *Argon2Hasher) { h.keyLen = n }
}

// WithSaltLength sets the salt length in bytes (default: 16).
func WithSaltLength(n int) Argon2Option {
	return func(h *Argon2Hasher) { h.saltLen = n }
}

// NewArgon2Hasher creates an argon2id-based password hasher.
// Defaults follow OWASP recommendations: time=1, memory=64MB, threads=4.
func NewArgon2Hasher(opts ...Argon2Option) *Argon2Hasher {
	h := &Argon2Hasher{
		time:    1,
		memory:  64 * 1024,
		threads: 4,
		keyLen:  32,
		saltLen: 16,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hash derives a key from password with a new random salt.
func (h *Argon2Hasher) Hash(password string) (string, error) {
	salt, err := generateRandomBytes(h.saltLen)
	if err != nil {
		return "", fmt.Errorf("password: generate salt: %w", err)
	}
	key := h.derive(password, salt)
	return hex.EncodeToString(key) + separator + hex.EncodeToString(salt), nil
}

// Verify re-derives the key with the stored salt and compares in constant time.
func (h *Argon2Hasher) Verify(password, encoded string) bool {
	keyHex, saltHex, ok := strings.Cut(encoded, separator)
	if !ok || keyHex == "" || saltHex == "" {
		return false
	}
	expected, err := hex.DecodeString(keyHex)
	if err != nil || len(expected) != int(h.keyLen) {
		return false
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(h.derive(password, salt), expected) == 1
}

func (h *Argon2Hasher) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, h.time, h.memory, h.threads, h.keyLen)
}
