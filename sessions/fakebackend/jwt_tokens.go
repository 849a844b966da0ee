package fakebackend

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-storefront/users"
)

// JWTIssuer mints HS256 access tokens shaped like the storefront API's
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTIssuer(secret string, ttl time.Duration, now func() time.Time) *JWTIssuer {
	if now == nil {
		now = time.Now
	}
	return &JWTIssuer{secret: []byte(secret), ttl: ttl, now: now}
}

// CreateAccessToken signs a token for u expiring after the issuer's ttl
func (i *JWTIssuer) CreateAccessToken(u users.User) (string, error) {
	claims := jwtlib.MapClaims{
		"token_type": "access",
		"user_id":    u.ID,
		"username":   u.Username,
		"role":       string(u.Role),
		"iat":        i.now().Unix(),
		"exp":        i.now().Add(i.ttl).Unix(),
		"jti":        uuid.NewString(),
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signed, nil
}

// UseJWTAccessTokens makes the backend issue signed, expiring access tokens instead of counters
func (b *FakeBackend) UseJWTAccessTokens(issuer *JWTIssuer) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.jwt = issuer
}

// issueAccess returns a new access token for username. Caller holds the lock.
func (b *FakeBackend) issueAccess(username string) (string, error) {
	if b.jwt == nil {
		return b.issue("access"), nil
	}
	return b.jwt.CreateAccessToken(b.accounts[username].user)
}
