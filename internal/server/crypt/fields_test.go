package crypt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgvault/orgvault/internal/common"
	"github.com/orgvault/orgvault/internal/server/kms"
)

func newTestCipher(t *testing.T) kms.RootKeyCipher {
	t.Helper()
	key, err := kms.GenerateKey()
	require.NoError(t, err)
	c, err := kms.New(key)
	require.NoError(t, err)
	return c
}

// failingCipher always errors, to exercise the seal error path.
type failingCipher struct{}

func (failingCipher) Encrypt([]byte) ([]byte, error) { return nil, errors.New("hsm offline") }
func (failingCipher) Decrypt([]byte) ([]byte, error) { return nil, errors.New("hsm offline") }

func TestSealOpen_RoundTrip(t *testing.T) {
	c := newTestCipher(t)

	tests := []struct {
		name   string
		fields map[string]string
	}{
		{"web login", map[string]string{"username": "alice", "password": "p@ss"}},
		{"credit card", map[string]string{"cardNumber": "4111111111111111", "expiryDate": "2027-04-01", "cvv": "123"}},
		{"secure note", map[string]string{"title": "T", "content": "C"}},
		{"empty value", map[string]string{"username": ""}},
		{"empty map", map[string]string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sealed, err := SealFields(c, tc.fields)
			require.NoError(t, err)

			opened, err := OpenFields(c, sealed)
			require.NoError(t, err)
			assert.Equal(t, tc.fields, opened)
		})
	}
}

func TestSealFields_PreservesKeySet(t *testing.T) {
	c := newTestCipher(t)

	in := map[string]string{"username": "alice", "password": "p@ss"}
	sealed, err := SealFields(c, in)
	require.NoError(t, err)

	require.Len(t, sealed, len(in))
	for k := range in {
		assert.Contains(t, sealed, k)
	}
}

func TestSealFields_NeverStoresPlaintext(t *testing.T) {
	c := newTestCipher(t)

	sealed, err := SealFields(c, map[string]string{"username": "alice"})
	require.NoError(t, err)
	assert.NotEqual(t, "alice", sealed["username"])
	assert.NotContains(t, sealed["username"], "alice")
}

func TestSealFields_NonDeterministicCiphertextStillOpens(t *testing.T) {
	c := newTestCipher(t)
	in := map[string]string{"password": "p@ss"}

	a, err := SealFields(c, in)
	require.NoError(t, err)
	b, err := SealFields(c, in)
	require.NoError(t, err)

	assert.NotEqual(t, a["password"], b["password"])

	for _, sealed := range []map[string]string{a, b} {
		opened, err := OpenFields(c, sealed)
		require.NoError(t, err)
		assert.Equal(t, in, opened)
	}
}

func TestOpenFields_InvalidHex(t *testing.T) {
	c := newTestCipher(t)

	_, err := OpenFields(c, map[string]string{"username": "not-hex"})
	assert.ErrorIs(t, err, common.ErrorDecryptionFailed)
}

func TestOpenFields_TamperedValueAbortsWholeCall(t *testing.T) {
	c := newTestCipher(t)

	sealed, err := SealFields(c, map[string]string{"username": "alice", "password": "p@ss"})
	require.NoError(t, err)
	sealed["password"] = sealed["password"][:len(sealed["password"])-2] + "00"

	opened, err := OpenFields(c, sealed)
	assert.ErrorIs(t, err, common.ErrorDecryptionFailed)
	assert.Nil(t, opened, "no partial field recovery")
	assert.NotContains(t, err.Error(), "password", "error must not leak which field failed")
}

func TestSealFields_PrimitiveError(t *testing.T) {
	_, err := SealFields(failingCipher{}, map[string]string{"username": "alice"})
	assert.Error(t, err)
}
