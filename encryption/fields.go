package encryption

import "fmt"

// Sibling key suffixes written by EncryptFields.
const (
	SuffixCiphertext = "_encrypted"
	SuffixIV         = "_iv"
	SuffixAuthTag    = "_auth"
)

// EncryptFields replaces each named string field of record with its
// encrypted siblings. Absent and non-string fields are left untouched.
func EncryptFields(enc Encryptor, record map[string]any, fields ...string) error {
	for _, f := range fields {
		v, ok := record[f].(string)
		if !ok {
			continue
		}
		sealed, err := enc.Encrypt(v)
		if err != nil {
			return fmt.Errorf("encrypt field %s: %w", f, err)
		}
		delete(record, f)
		record[f+SuffixCiphertext] = sealed.Ciphertext
		record[f+SuffixIV] = sealed.IV
		record[f+SuffixAuthTag] = sealed.AuthTag
	}
	return nil
}

// DecryptFields reverses EncryptFields. A field whose siblings fail to
// decrypt is restored as the empty string.
func DecryptFields(enc Encryptor, record map[string]any, fields ...string) {
	for _, f := range fields {
		ct, ok := record[f+SuffixCiphertext].(string)
		if !ok {
			continue
		}
		iv, _ := record[f+SuffixIV].(string)
		tag, _ := record[f+SuffixAuthTag].(string)

		plain, _ := enc.Decrypt(ct, iv, tag)
		record[f] = plain
		delete(record, f+SuffixCiphertext)
		delete(record, f+SuffixIV)
		delete(record, f+SuffixAuthTag)
	}
}
