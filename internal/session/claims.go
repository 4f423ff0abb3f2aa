package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var now = time.Now

// Claims mirrors the payload the backend signs into login tokens.
type Claims struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Inspect decodes the token's claims without verifying the signature.
// ok is false for tokens that are not JWTs.
func Inspect(token string) (Claims, bool) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Claims{}, false
	}
	return claims, true
}

// Expired reports whether the token carries an exp claim at or before at.
// Opaque tokens and tokens without exp never expire client-side.
func Expired(token string, at time.Time) bool {
	claims, ok := Inspect(token)
	if !ok || claims.ExpiresAt == nil {
		return false
	}
	return !at.Before(claims.ExpiresAt.Time)
}
