package utils

import (
	"testing"
	"time"

	"therapy/models"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	actor := models.Actor{ID: "p1", Role: models.RolePatient}
	token, err := GenerateToken("secret", actor, time.Hour)
	require.NoError(t, err)

	got, err := ActorFromToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, actor, got)

	_, err = ActorFromToken("other", token)
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	token, err := GenerateToken("secret", models.Actor{ID: "t1", Role: models.RoleTherapist}, -time.Minute)
	require.NoError(t, err)

	_, err = ActorFromToken("secret", token)
	assert.Error(t, err)
}

func TestTokenWithoutRole(t *testing.T) {
	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	token, err := raw.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ActorFromToken("secret", token)
	assert.ErrorIs(t, err, ErrMissingRole)
}
