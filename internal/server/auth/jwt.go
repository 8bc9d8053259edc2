// Package auth issues and parses the HS256 access tokens that carry an
// actor's identity and organization scope.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/orgvault/orgvault/internal/common"
	"github.com/orgvault/orgvault/internal/server/models"
)

// Claims extends the registered claims with the actor identity the server
// needs to rebuild an ActorContext per request.
type Claims struct {
	jwt.RegisteredClaims
	UserID     string `json:"uid"`
	OrgID      string `json:"org"`
	ActorType  string `json:"act"`
	AuthMethod string `json:"amr"`
}

// GenerateToken signs an access token for the given actor.
func GenerateToken(actor *models.ActorContext, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID:     actor.ID,
		OrgID:      actor.ActorOrgID,
		ActorType:  string(actor.Type),
		AuthMethod: actor.AuthMethod,
	})

	return token.SignedString(secretKey)
}

// ParseActor validates the token and reconstructs the actor context. The
// target OrgID is set to the credential's organization; handlers targeting
// another organization must override it explicitly.
func ParseActor(tokenString string, secretKey []byte) (*models.ActorContext, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	actorType := models.ActorType(claims.ActorType)
	if actorType == "" {
		actorType = models.ActorTypeUser
	}

	return &models.ActorContext{
		Type:       actorType,
		ID:         claims.UserID,
		OrgID:      claims.OrgID,
		AuthMethod: claims.AuthMethod,
		ActorOrgID: claims.OrgID,
	}, nil
}
