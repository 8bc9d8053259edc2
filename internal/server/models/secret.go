// Package models defines the server-side data model for orgvault.
package models

import "time"

// CredentialKind tags which field shape a user secret follows.
type CredentialKind string

const (
	CredentialKindWebLogin   CredentialKind = "WebLogin"
	CredentialKindCreditCard CredentialKind = "CreditCard"
	CredentialKindSecureNote CredentialKind = "SecureNote"
)

// Valid reports whether k is a member of the closed enumeration.
func (k CredentialKind) Valid() bool {
	switch k {
	case CredentialKindWebLogin, CredentialKindCreditCard, CredentialKindSecureNote:
		return true
	}
	return false
}

// UserSecret is the persisted unit: one secret owned by one member of one
// organization.
//
// SecretData holds one opaque hex-encoded ciphertext per field name. It is
// replaced wholesale on every write and opened to plaintext only on the
// single-record read path. Metadata is caller-defined, never encrypted, and
// stored as-is.
//
// The storage row also carries legacy whole-blob cipher columns
// (encrypted_value, iv, tag, hashed_hex) from a prior encryption scheme; new
// writes leave them NULL and they are not surfaced on the model.
type UserSecret struct {
	ID             string
	UserID         string
	OrgID          string
	Name           string
	CredentialKind CredentialKind
	SecretData     map[string]string
	Metadata       map[string]string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
