package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	key := []byte("secret")
	s, err := GenerateToken(key, 42, time.Hour)
	require.NoError(t, err)

	token, err := jwt.Parse(s, func(*jwt.Token) (interface{}, error) { return key, nil })
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims := token.Claims.(jwt.MapClaims)
	assert.EqualValues(t, 42, claims["user_id"])
	assert.NotEmpty(t, claims["jti"])
}

func TestGenerateTokenExpired(t *testing.T) {
	key := []byte("secret")
	s, err := GenerateToken(key, 1, -time.Hour)
	require.NoError(t, err)

	_, err = jwt.Parse(s, func(*jwt.Token) (interface{}, error) { return key, nil })
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestSafeRedirect(t *testing.T) {
	tests := map[string]string{
		"":                     "/home",
		"/post/new":            "/post/new",
		"/post/1/update?x=1":   "/post/1/update?x=1",
		"//evil.example":       "/home",
		"/\\evil.example":      "/home",
		"https://evil.example": "/home",
		"post/new":             "/home",
	}
	for next, want := range tests {
		assert.Equal(t, want, SafeRedirect(next, "/home"), next)
	}
}
