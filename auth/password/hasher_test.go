package password

import (
	"strings"
	"testing"
)

func testHasher() *Argon2Hasher {
	return NewArgon2Hasher(WithArgon2Memory(1024), WithArgon2Threads(1))
}

func TestArgon2Hasher_HashAndVerify(t *testing.T) {
	h := testHasher()
	encoded, err := h.Hash("Str0ng!Pass")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !h.Verify("Str0ng!Pass", encoded) {
		t.Error("expected password to verify against its own hash")
	}
	if h.Verify("Str0ng!Pasz", encoded) {
		t.Error("expected different password to fail")
	}
}

func TestArgon2Hasher_Encoding(t *testing.T) {
	h := testHasher()
	encoded, err := h.Hash("secret")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	keyHex, saltHex, ok := strings.Cut(encoded, ".")
	if !ok {
		t.Fatalf("expected '.' separator in %q", encoded)
	}
	if len(keyHex) != 64 {
		t.Errorf("expected 32-byte key as 64 hex chars, got %d", len(keyHex))
	}
	if len(saltHex) != 32 {
		t.Errorf("expected 16-byte salt as 32 hex chars, got %d", len(saltHex))
	}
}

func TestArgon2Hasher_FreshSaltPerCall(t *testing.T) {
	h := testHasher()
	a, _ := h.Hash("same")
	b, _ := h.Hash("same")
	if a == b {
		t.Error("two hashes of the same password should differ")
	}
	if !h.Verify("same", a) || !h.Verify("same", b) {
		t.Error("both hashes should verify")
	}
}

func TestArgon2Hasher_MalformedFailsClosed(t *testing.T) {
	h := testHasher()
	valid, _ := h.Hash("pw")
	key, salt, _ := strings.Cut(valid, ".")

	tests := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"no separator", key + salt},
		{"empty key", "." + salt},
		{"empty salt", key + "."},
		{"bad hex key", "zz" + key[2:] + "." + salt},
		{"bad hex salt", key + ".xyz"},
		{"short key", key[:10] + "." + salt},
		{"extra separator", key + "." + salt + ".00"},
		{"bcrypt hash", "$2a$12$abcdefghijklmnopqrstuv"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if h.Verify("pw", tc.encoded) {
				t.Errorf("expected %q to fail verification", tc.encoded)
			}
		})
	}
}

func TestNewHasher_FromConfig(t *testing.T) {
	cfg := Config{Argon2Memory: 1024, Argon2Threads: 1}
	h := NewHasher(cfg)
	if h.memory != 1024 || h.threads != 1 || h.keyLen != 32 || h.saltLen != 16 {
		t.Fatalf("unexpected hasher params %+v", h)
	}
	encoded, err := h.Hash("pw")
	if err != nil || !h.Verify("pw", encoded) {
		t.Fatalf("hasher from config should round trip (err=%v)", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	cfg.KeyLength = 4
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for short key length")
	}
}

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
	b, _ := GenerateToken(32)
	if a == b {
		t.Error("tokens should be unique")
	}
}
