// Package crypt implements the field-level encryption transform between
// plaintext field maps and their stored hex-encoded ciphertext form.
// Encrypting per field keeps the stored shape self-describing and leaves
// room for partial-field access later; field names come from the closed
// schema registry and are not secret.
package crypt

import (
	"encoding/hex"
	"fmt"

	"github.com/orgvault/orgvault/internal/common"
	"github.com/orgvault/orgvault/internal/server/kms"
)

// SealFields encrypts every value of plain with the root key and hex-encodes
// the result. The output has exactly the same key set as the input. The
// underlying primitive is randomized, so identical inputs need not produce
// identical ciphertext.
func SealFields(cipher kms.RootKeyCipher, plain map[string]string) (map[string]string, error) {
	sealed := make(map[string]string, len(plain))
	for key, value := range plain {
		ct, err := cipher.Encrypt([]byte(value))
		if err != nil {
			return nil, fmt.Errorf("sealing fields: %w", err)
		}
		sealed[key] = hex.EncodeToString(ct)
	}
	return sealed, nil
}

// OpenFields is the inverse of SealFields. Any value that is not valid hex
// or that the root key rejects aborts the whole call; the error never names
// the failing field, so a single corrupt value cannot be probed for.
func OpenFields(cipher kms.RootKeyCipher, sealed map[string]string) (map[string]string, error) {
	plain := make(map[string]string, len(sealed))
	for key, value := range sealed {
		ct, err := hex.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("%w: stored field is not valid hex", common.ErrorDecryptionFailed)
		}
		pt, err := cipher.Decrypt(ct)
		if err != nil {
			// Return the bare sentinel: primitive detail could identify the field.
			return nil, common.ErrorDecryptionFailed
		}
		plain[key] = string(pt)
	}
	return plain, nil
}
