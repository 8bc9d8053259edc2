package kms

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"

	"github.com/orgvault/orgvault/internal/common"
)

const (
	// KeySize is the required root key length: 256 bits for AES-256.
	KeySize = 32

	// hkdfInfo gives domain separation for the sealing key so the raw root
	// key material can be reused for other purposes without overlap.
	hkdfInfo = "orgvault-rootkey-seal-v1"
)

// AESGCMCipher implements RootKeyCipher with AES-256-GCM. A fresh random
// nonce is generated per encryption and prepended to the ciphertext, so the
// stored value is self-contained. The struct is stateless after construction
// and safe for concurrent use.
type AESGCMCipher struct {
	aead cipher.AEAD
}

// New builds an AESGCMCipher from 32 bytes of root key material. The sealing
// key is expanded from the material with HKDF-SHA256.
func New(rootKey []byte) (*AESGCMCipher, error) {
	if len(rootKey) != KeySize {
		return nil, fmt.Errorf("root key must be %d bytes, got %d", KeySize, len(rootKey))
	}

	sealKey := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, rootKey, nil, []byte(hkdfInfo)), sealKey); err != nil {
		return nil, fmt.Errorf("key derivation error: %w", err)
	}

	block, err := aes.NewCipher(sealKey)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &AESGCMCipher{aead: aead}, nil
}

// NewFromHex builds an AESGCMCipher from a 64-character hex root key.
func NewFromHex(s string) (*AESGCMCipher, error) {
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("root key is not valid hex: %w", err)
	}
	return New(key)
}

// NewFromPassphrase derives root key material from a passphrase and salt
// with argon2id and builds an AESGCMCipher from it.
func NewFromPassphrase(passphrase, salt []byte) (*AESGCMCipher, error) {
	key := argon2.IDKey(passphrase, salt, 1, 64*1024, 4, KeySize)
	return New(key)
}

// Encrypt seals plaintext and returns nonce||ciphertext||tag.
func (c *AESGCMCipher) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens nonce||ciphertext||tag produced by Encrypt. Truncated input,
// a wrong key, or a failed auth tag all report ErrorDecryptionFailed.
func (c *AESGCMCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	nonceSize := c.aead.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("%w: ciphertext too short", common.ErrorDecryptionFailed)
	}

	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorDecryptionFailed, err)
	}
	return plaintext, nil
}

// GenerateKey creates new random root key material, for provisioning.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}
