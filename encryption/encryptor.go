package encryption

// Sealed is the output of one encryption call. All parts are hex encoded.
type Sealed struct {
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv"`
	AuthTag    string `json:"authTag"`
}

// Encryptor defines authenticated field encryption.
type Encryptor interface {
	Encrypt(plaintext string) (Sealed, error)
	// Decrypt returns false when the input was tampered with or is malformed.
	Decrypt(ciphertext, iv, authTag string) (string, bool)
}
