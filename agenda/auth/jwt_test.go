package auth

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeToken(t *testing.T, claims jwt.MapClaims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestUserFromToken(t *testing.T) {
	tests := []struct {
		name     string
		claims   jwt.MapClaims
		expected UserInfo
	}{
		{"full claims",
			jwt.MapClaims{"username": "ana", "roles": []string{"doctor"}, "user_id": 7, "email": "ana@example.com"},
			UserInfo{Username: "ana", Roles: []string{"doctor"}, UserID: "7", Email: "ana@example.com"}},
		{"username falls back to sub",
			jwt.MapClaims{"sub": "luis", "groups": []string{"recepcionista", "administradores"}},
			UserInfo{Username: "luis", Roles: []string{"recepcionista", "administradores"}, UserID: "luis"}},
		{"username falls back to user_id",
			jwt.MapClaims{"user_id": 42},
			UserInfo{Username: "42", Roles: []string{}, UserID: "42"}},
		{"empty username is skipped",
			jwt.MapClaims{"username": "", "user": "marta"},
			UserInfo{Username: "marta", Roles: []string{}}},
		{"single role is lifted to a list",
			jwt.MapClaims{"username": "ana", "role": "paciente"},
			UserInfo{Username: "ana", Roles: []string{"paciente"}}},
		{"authorities",
			jwt.MapClaims{"username": "ana", "authorities": []string{"administradores"}},
			UserInfo{Username: "ana", Roles: []string{"administradores"}}},
		{"id claim",
			jwt.MapClaims{"username": "ana", "id": "abc"},
			UserInfo{Username: "ana", Roles: []string{}, UserID: "abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, UserFromToken(makeToken(t, tt.claims)))
		})
	}
}

func TestUserFromBadToken(t *testing.T) {
	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		info := UserFromToken(token)
		assert.Equal(t, "", info.Username)
		assert.Equal(t, []string{}, info.Roles)
		assert.Equal(t, []string{}, RolesFromToken(token))
	}
}

func TestIsTokenExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		token    string
		expected bool
	}{
		{"future exp", makeToken(t, jwt.MapClaims{"exp": now.Add(time.Minute).Unix()}), false},
		{"exp equal to now", makeToken(t, jwt.MapClaims{"exp": now.Unix()}), false},
		{"past exp", makeToken(t, jwt.MapClaims{"exp": now.Add(-time.Second).Unix()}), true},
		{"no exp", makeToken(t, jwt.MapClaims{"username": "ana"}), true},
		{"garbage", "garbage", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsTokenExpired(tt.token, now))
		})
	}
}

func TestDecodeTokenIgnoresSignature(t *testing.T) {
	token := makeToken(t, jwt.MapClaims{"username": "ana"})
	// Corrupt the signature part.
	claims, err := DecodeToken(token[:len(token)-4] + "AAAA")
	assert.NoError(t, err)
	assert.Equal(t, "ana", claims["username"])
}
