// Package encryption provides field-level AES-256-GCM encryption for
// sensitive user attributes.
//
// Every Encrypt call draws a fresh 128-bit IV and returns the ciphertext,
// IV and authentication tag separately, hex encoded, so they can be stored
// as sibling columns. Decrypt never fails loudly: any tampering or corrupt
// input yields ("", false).
//
// # Usage
//
//	key, err := encryption.ParseKey(os.Getenv("AUTH_ENCRYPTION_KEY"))
//	enc, err := encryption.NewService(key)
//	sealed, err := enc.Encrypt("555-0100")
//	plain, ok := enc.Decrypt(sealed.Ciphertext, sealed.IV, sealed.AuthTag)
package encryption
