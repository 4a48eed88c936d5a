package jwt

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// The backend issues opaque or JWT-shaped bearer credentials. The client never
// verifies signatures (the server is authoritative); it only inspects claims
// to avoid sending a token that is already past its expiry.

// Expiry returns the exp claim of a JWT-shaped credential. The second return
// is false for opaque tokens or tokens without an exp claim.
func Expiry(token string) (time.Time, bool) {
	if strings.Count(token, ".") != 2 {
		return time.Time{}, false
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// IsExpired reports whether a JWT-shaped credential is past its expiry.
// Opaque tokens are never considered expired locally; the server decides.
func IsExpired(token string, now time.Time) bool {
	exp, ok := Expiry(token)
	if !ok {
		return false
	}
	return now.After(exp)
}

// TimingSafeCompare performs a timing-safe comparison of two strings
// This prevents timing attacks when comparing tokens
func TimingSafeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
