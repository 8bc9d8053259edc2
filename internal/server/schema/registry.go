// Package schema holds the static credential-shape registry: for every
// credential kind, the ordered list of field descriptors the kind accepts.
// The registry is build-time configuration, not runtime state; adding a new
// kind means adding one enumeration value and one entry here.
package schema

import (
	"fmt"
	"regexp"
	"time"

	"github.com/orgvault/orgvault/internal/common"
	"github.com/orgvault/orgvault/internal/server/models"
)

// InputType describes how a field value is entered and validated.
type InputType string

const (
	InputTypeText    InputType = "text"
	InputTypeDate    InputType = "date"
	InputTypeNumeric InputType = "numeric"
)

// FieldDescriptor declares one expected field of a credential kind.
// Validate, when set, checks a submitted value and returns a reason string
// on failure. Field names are not considered secret.
type FieldDescriptor struct {
	Name      string
	Label     string
	Type      InputType
	MaxLength int // 0 means unlimited
	Validate  func(value string) string
}

var (
	cardNumberRe = regexp.MustCompile(`^[0-9]{12,19}$`)
	cvvRe        = regexp.MustCompile(`^[0-9]{3,4}$`)
)

func validCardNumber(v string) string {
	if !cardNumberRe.MatchString(v) {
		return "must be 12-19 digits"
	}
	return ""
}

func validCVV(v string) string {
	if !cvvRe.MatchString(v) {
		return "must be 3-4 digits"
	}
	return ""
}

func validDate(v string) string {
	if _, err := time.Parse("2006-01-02", v); err != nil {
		return "must be a date in YYYY-MM-DD form"
	}
	return ""
}

var registry = map[models.CredentialKind][]FieldDescriptor{
	models.CredentialKindWebLogin: {
		{Name: "username", Label: "Username", Type: InputTypeText, MaxLength: 255},
		{Name: "password", Label: "Password", Type: InputTypeText},
	},
	models.CredentialKindCreditCard: {
		{Name: "cardNumber", Label: "Card Number", Type: InputTypeNumeric, MaxLength: 19, Validate: validCardNumber},
		{Name: "expiryDate", Label: "Expiry Date", Type: InputTypeDate, Validate: validDate},
		{Name: "cvv", Label: "CVV", Type: InputTypeNumeric, MaxLength: 4, Validate: validCVV},
	},
	models.CredentialKindSecureNote: {
		{Name: "title", Label: "Title", Type: InputTypeText, MaxLength: 255},
		{Name: "content", Label: "Content", Type: InputTypeText},
	},
}

// Fields returns the ordered field descriptors for the given kind.
func Fields(kind models.CredentialKind) ([]FieldDescriptor, error) {
	fields, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown credential kind %q", common.ErrorValidation, kind)
	}
	return fields, nil
}

// FilterFields keeps only the keys of in that the kind declares. Unknown
// keys are dropped silently so callers may submit a superset of fields
// (e.g. leftovers from a form type switch) without failing the request.
func FilterFields(kind models.CredentialKind, in map[string]string) (map[string]string, error) {
	fields, err := Fields(kind)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(in))
	for _, f := range fields {
		if v, ok := in[f.Name]; ok {
			out[f.Name] = v
		}
	}
	return out, nil
}

// ValidateFields applies each declared constraint to the submitted values.
// Fields the write omits are not required. Error messages name the failing
// field but never echo the submitted value.
func ValidateFields(kind models.CredentialKind, in map[string]string) error {
	fields, err := Fields(kind)
	if err != nil {
		return err
	}

	for _, f := range fields {
		v, ok := in[f.Name]
		if !ok {
			continue
		}
		if f.MaxLength > 0 && len(v) > f.MaxLength {
			return fmt.Errorf("%w: field %q exceeds %d characters", common.ErrorValidation, f.Name, f.MaxLength)
		}
		if f.Validate != nil {
			if reason := f.Validate(v); reason != "" {
				return fmt.Errorf("%w: field %q %s", common.ErrorValidation, f.Name, reason)
			}
		}
	}
	return nil
}
