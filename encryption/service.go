package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// IVSize is the GCM nonce size used for every call: 128 bits.
const IVSize = 16

// Service encrypts fields with AES-256-GCM.
type Service struct {
	gcm cipher.AEAD
}

var _ Encryptor = (*Service)(nil)

// NewService creates an encryption service for a KeySize-byte key.
func NewService(key []byte) (*Service, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, IVSize)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &Service{gcm: gcm}, nil
}

// Encrypt seals plaintext under a fresh random IV.
func (s *Service) Encrypt(plaintext string) (Sealed, error) {
	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return Sealed{}, fmt.Errorf("generate iv: %w", err)
	}
	out := s.gcm.Seal(nil, iv, []byte(plaintext), nil)
	tagStart := len(out) - s.gcm.Overhead()
	return Sealed{
		Ciphertext: hex.EncodeToString(out[:tagStart]),
		IV:         hex.EncodeToString(iv),
		AuthTag:    hex.EncodeToString(out[tagStart:]),
	}, nil
}

// Decrypt opens a sealed value. Any failure returns ("", false).
func (s *Service) Decrypt(ciphertext, iv, authTag string) (string, bool) {
	ct, err := hex.DecodeString(ciphertext)
	if err != nil {
		return "", false
	}
	nonce, err := hex.DecodeString(iv)
	if err != nil || len(nonce) != IVSize {
		return "", false
	}
	tag, err := hex.DecodeString(authTag)
	if err != nil || len(tag) != s.gcm.Overhead() {
		return "", false
	}

	sealed := make([]byte, 0, len(ct)+len(tag))
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plain, err := s.gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", false
	}
	return string(plain), true
}
