package fakebackend

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	apperrors "github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/jrsteele09/go-storefront/sessions"
	"github.com/jrsteele09/go-storefront/users"
)

var _ sessions.Backend = (*FakeBackend)(nil)

type account struct {
	password string
	user     users.User
}

// FakeBackend is an in-memory auth API. Tokens are opaque counters.
type FakeBackend struct {
	accounts      map[string]account // username -> account
	accessTokens  map[string]string  // access token -> username
	refreshTokens map[string]string  // refresh token -> username
	failures      map[string]error   // method -> error returned on next call
	calls         map[string]int
	counter       int
	jwt           *JWTIssuer
	lock          sync.Mutex
}

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		accounts:      make(map[string]account),
		accessTokens:  make(map[string]string),
		refreshTokens: make(map[string]string),
		failures:      make(map[string]error),
		calls:         make(map[string]int),
	}
}

// AddUser seeds an account
func (b *FakeBackend) AddUser(password string, u users.User) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if u.ID == 0 {
		b.counter++
		u.ID = int64(b.counter)
	}
	b.accounts[u.Username] = account{password: password, user: u}
}

// IssueRefreshToken registers a refresh token for username
func (b *FakeBackend) IssueRefreshToken(token, username string) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.refreshTokens[token] = username
}

// IssueAccessToken registers an access token for username
func (b *FakeBackend) IssueAccessToken(token, username string) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.accessTokens[token] = username
}

// RevokeAccessTokens makes every issued access token answer 401
func (b *FakeBackend) RevokeAccessTokens() {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.accessTokens = make(map[string]string)
}

// FailNext makes the next call to method return err
func (b *FakeBackend) FailNext(method string, err error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.failures[method] = err
}

// Calls reports how many times method has been called
func (b *FakeBackend) Calls(method string) int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.calls[method]
}

// record counts a call and returns any forced failure. Caller holds the lock.
func (b *FakeBackend) record(method string) error {
	b.calls[method]++
	if err, ok := b.failures[method]; ok {
		delete(b.failures, method)
		return err
	}
	return nil
}

func (b *FakeBackend) issue(prefix string) string {
	b.counter++
	return fmt.Sprintf("%s-%d", prefix, b.counter)
}

func (b *FakeBackend) Login(_ context.Context, creds sessions.Credentials) (sessions.TokenPair, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if err := b.record("Login"); err != nil {
		return sessions.TokenPair{}, err
	}
	acc, ok := b.accounts[creds.Username]
	if !ok || acc.password != creds.Password {
		return sessions.TokenPair{}, &apperrors.BackendError{
			Kind:   apperrors.ErrAuthentication,
			Status: http.StatusUnauthorized,
			Detail: "No active account found with the given credentials",
		}
	}
	access, err := b.issueAccess(creds.Username)
	if err != nil {
		return sessions.TokenPair{}, err
	}
	pair := sessions.TokenPair{AccessToken: access, RefreshToken: b.issue("refresh")}
	b.accessTokens[pair.AccessToken] = creds.Username
	b.refreshTokens[pair.RefreshToken] = creds.Username
	return pair, nil
}

func (b *FakeBackend) Register(_ context.Context, reg sessions.Registration) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if err := b.record("Register"); err != nil {
		return err
	}
	if _, exists := b.accounts[reg.Username]; exists {
		return &apperrors.BackendError{
			Kind:   apperrors.ErrValidation,
			Status: http.StatusBadRequest,
			Fields: map[string][]string{"username": {"A user with that username already exists."}},
		}
	}
	for _, acc := range b.accounts {
		if acc.user.Email == reg.Email {
			return &apperrors.BackendError{
				Kind:   apperrors.ErrValidation,
				Status: http.StatusBadRequest,
				Fields: map[string][]string{"email": {"user with this email already exists."}},
			}
		}
	}
	b.counter++
	b.accounts[reg.Username] = account{
		password: reg.Password,
		user: users.User{
			ID:        int64(b.counter),
			Username:  reg.Username,
			Email:     reg.Email,
			FirstName: reg.FirstName,
			LastName:  reg.LastName,
			Role:      users.RoleCustomer,
		},
	}
	return nil
}

func (b *FakeBackend) CurrentUser(_ context.Context, accessToken string) (*users.User, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if err := b.record("CurrentUser"); err != nil {
		return nil, err
	}
	username, ok := b.accessTokens[accessToken]
	if !ok {
		return nil, &apperrors.BackendError{Kind: apperrors.ErrAuthentication, Status: http.StatusUnauthorized, Detail: "Given token not valid for any token type"}
	}
	acc, ok := b.accounts[username]
	if !ok {
		return nil, &apperrors.BackendError{Kind: apperrors.ErrNotFound, Status: http.StatusNotFound}
	}
	u := acc.user
	return &u, nil
}

func (b *FakeBackend) Refresh(_ context.Context, refreshToken string) (string, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if err := b.record("Refresh"); err != nil {
		return "", err
	}
	username, ok := b.refreshTokens[refreshToken]
	if !ok {
		return "", &apperrors.BackendError{Kind: apperrors.ErrAuthentication, Status: http.StatusUnauthorized, Detail: "Token is invalid or expired"}
	}
	access, err := b.issueAccess(username)
	if err != nil {
		return "", err
	}
	b.accessTokens[access] = username
	return access, nil
}
