package sessions

import (
	"context"

	"github.com/jrsteele09/go-storefront/users"
)

// Backend is the remote auth API the store talks to.
// Errors should unwrap to one of the internal/errors kinds.
type Backend interface {
	Login(ctx context.Context, creds Credentials) (TokenPair, error)
	Register(ctx context.Context, reg Registration) error
	CurrentUser(ctx context.Context, accessToken string) (*users.User, error)
	// Refresh exchanges a refresh token for a new access token
	Refresh(ctx context.Context, refreshToken string) (string, error)
}
