package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgvault/orgvault/internal/common"
	"github.com/orgvault/orgvault/internal/server/models"
)

var testKey = []byte("test-secret-key")

func testActor() *models.ActorContext {
	return &models.ActorContext{
		Type:       models.ActorTypeUser,
		ID:         "u-1",
		AuthMethod: "jwt",
		ActorOrgID: "org-1",
	}
}

func TestGenerateAndParse(t *testing.T) {
	token, err := GenerateToken(testActor(), testKey, time.Minute)
	require.NoError(t, err)

	actor, err := ParseActor(token, testKey)
	require.NoError(t, err)

	assert.Equal(t, "u-1", actor.ID)
	assert.Equal(t, "org-1", actor.OrgID)
	assert.Equal(t, "org-1", actor.ActorOrgID)
	assert.Equal(t, models.ActorTypeUser, actor.Type)
	assert.Equal(t, "jwt", actor.AuthMethod)
}

func TestParseActor_WrongKey(t *testing.T) {
	token, err := GenerateToken(testActor(), testKey, time.Minute)
	require.NoError(t, err)

	_, err = ParseActor(token, []byte("other-key"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseActor_Expired(t *testing.T) {
	token, err := GenerateToken(testActor(), testKey, -time.Minute)
	require.NoError(t, err)

	_, err = ParseActor(token, testKey)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseActor_Garbage(t *testing.T) {
	_, err := ParseActor("not.a.token", testKey)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}
