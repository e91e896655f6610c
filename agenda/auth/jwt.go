package auth

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// UserInfo is what the client knows about the logged in user. It is read from
// the access token and persisted under the "user" storage key.
type UserInfo struct {
	Username string   `json:"username" mapstructure:"username"`
	Roles    []string `json:"roles" mapstructure:"roles"`
	UserID   string   `json:"userId,omitempty" mapstructure:"user_id"`
	Email    string   `json:"email,omitempty" mapstructure:"email"`
}

// Claim names vary between backends; the first non-empty one wins.
var (
	usernameClaims = []string{"username", "user", "sub", "user_id"}
	rolesClaims    = []string{"roles", "role", "groups", "authorities"}
	userIDClaims   = []string{"user_id", "id", "sub"}
)

// DecodeToken returns the payload of token without verifying its signature.
// Signatures are the API's business; the client only reads the claims.
func DecodeToken(token string) (jwt.MapClaims, error) {
	if token == "" {
		return nil, errors.New("empty token")
	}
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return nil, errors.Wrap(err, "could not decode token")
	}
	return claims, nil
}

// UserFromToken extracts the user from token. An undecodable token yields an
// empty user with no roles.
func UserFromToken(token string) UserInfo {
	claims, err := DecodeToken(token)
	if err != nil {
		return UserInfo{Roles: []string{}}
	}
	return userFromClaims(claims)
}

func userFromClaims(claims jwt.MapClaims) UserInfo {
	flat := map[string]interface{}{
		"username": first(claims, usernameClaims),
		"roles":    first(claims, rolesClaims),
		"user_id":  first(claims, userIDClaims),
		"email":    claims["email"],
	}

	var info UserInfo
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &info,
	})
	if err == nil {
		err = decoder.Decode(flat)
	}
	if err != nil {
		// Claims of an unexpected shape; keep whatever decoded.
		info.Roles = nil
	}
	if info.Roles == nil {
		info.Roles = []string{}
	}
	return info
}

// RolesFromToken returns the roles carried by token, or an empty list.
func RolesFromToken(token string) []string {
	return UserFromToken(token).Roles
}

// IsTokenExpired reports whether token is expired at now. A token that cannot
// be decoded or has no exp claim counts as expired.
func IsTokenExpired(token string, now time.Time) bool {
	claims, err := DecodeToken(token)
	if err != nil {
		return true
	}
	exp, ok := claims["exp"].(float64)
	if !ok || exp == 0 {
		return true
	}
	return int64(exp) < now.Unix()
}

func first(claims jwt.MapClaims, keys []string) interface{} {
	for _, k := range keys {
		if v, ok := claims[k]; ok && !empty(v) {
			return v
		}
	}
	return nil
}

func empty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case float64:
		return t == 0
	case bool:
		return !t
	}
	return false
}
