// Package kms provides the process-wide root-key encryption primitive used
// to seal secret fields. The rest of the server depends only on the
// RootKeyCipher interface so tests can substitute a deterministic fake.
package kms

// RootKeyCipher encrypts and decrypts small byte slices with the
// organization-wide root key. Implementations must be safe for concurrent
// use from multiple requests.
type RootKeyCipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}
