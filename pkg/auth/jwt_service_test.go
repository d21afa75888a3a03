package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("not-our-key"))
	require.NoError(t, err)
	return s
}

func TestInspectReadsSubjectAndExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := sign(t, jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(exp),
	})

	claims, err := NewJWTInspector().Inspect(token)

	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.True(t, exp.Equal(claims.ExpiresAt))
	assert.InDelta(t, time.Hour.Seconds(), claims.TTL(time.Now()).Seconds(), 2)
}

func TestInspectFallsBackToUserID(t *testing.T) {
	token := sign(t, jwt.MapClaims{"user_id": 7, "token_type": "access"})

	claims, err := NewJWTInspector().Inspect(token)

	require.NoError(t, err)
	assert.Equal(t, "7", claims.Subject)
	assert.Zero(t, claims.TTL(time.Now()))
}

func TestInspectRejectsExpired(t *testing.T) {
	token := sign(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))})

	_, err := NewJWTInspector().Inspect(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestInspectRejectsGarbage(t *testing.T) {
	for _, tok := range []string{"", "abc", "a.b.c"} {
		_, err := NewJWTInspector().Inspect(tok)
		assert.ErrorIs(t, err, ErrMalformedToken, tok)
	}
}
