package sessions

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const expiryLeeway = 5 * time.Second

// tokenExpired reports whether a JWT access token's exp claim has passed.
// The signature is not checked; the backend does that. Opaque tokens and
// tokens without exp never count as expired.
func tokenExpired(token string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Add(expiryLeeway).Before(claims.ExpiresAt.Time)
}
