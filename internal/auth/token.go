package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpired inspects an authority-issued JWT and reports whether its exp
// claim has passed. The client does not hold the signing key, so the claims
// are parsed without verification; the authority remains the one enforcing
// validity. Tokens that cannot be parsed, or that carry no expiry, are
// treated as expired so the caller forces a re-login.
func TokenExpired(token string, now time.Time) bool {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return now.After(exp.Time)
}
