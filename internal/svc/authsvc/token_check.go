package authsvc

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpired reports whether token is a JWT whose exp claim is not after now.
// The signature is not checked: the backend owns the key. Tokens that are not JWTs
// are opaque and never reported as expired.
func TokenExpired(token string, now time.Time) bool {
	var claims jwt.RegisteredClaims

	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}

	if claims.ExpiresAt == nil {
		return false
	}

	return !now.Before(claims.ExpiresAt.Time)
}
