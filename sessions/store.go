// Package sessions owns the client's single source of truth for who is logged in.
//
// A Store is created once at application start, hydrated from the credential
// storage, and passed by reference to everything that needs to read or change
// the session. Every mutation replaces the State snapshot wholesale and then
// notifies subscribers with the new snapshot.
package sessions

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jrsteele09/go-storefront/credstore"
	apperrors "github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/jrsteele09/go-storefront/users"
	"github.com/rs/zerolog/log"
)

const (
	msgLoginFailed        = "login failed"
	msgRegistrationFailed = "registration failed"
	msgUnreachable        = "unable to reach the server"
)

type Store struct {
	backend Backend
	storage credstore.Storage
	now     func() time.Time

	// notifyMu serialises mutations with their fan-out so observers see states in commit order
	notifyMu  sync.Mutex
	mu        sync.RWMutex
	state     State
	observers map[int]func(State)
	nextID    int
}

// Option customises a Store
type Option func(*Store)

// WithClock replaces time.Now for token expiry checks
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore returns a store in the initial loading state. Call Hydrate once before use.
func NewStore(backend Backend, storage credstore.Storage, opts ...Option) *Store {
	s := &Store{
		backend:   backend,
		storage:   storage,
		now:       time.Now,
		state:     State{Loading: true},
		observers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Subscribe registers fn to receive every new state. The returned function removes it.
// Observers run in commit order and must not call back into the store's mutating methods.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.register(fn)
	s.mu.Unlock()
	return s.unsubscriber(id)
}

// Watch is Subscribe that first delivers the current state, with no commit able to slip in between
func (s *Store) Watch(fn func(State)) (unsubscribe func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	id := s.register(fn)
	current := s.state.clone()
	s.mu.Unlock()

	fn(current)
	return s.unsubscriber(id)
}

// register adds fn. Caller holds mu.
func (s *Store) register(fn func(State)) int {
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	return id
}

func (s *Store) unsubscriber(id int) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

// update applies fn to the current state under the lock and notifies observers
func (s *Store) update(fn func(State) State) State {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	next := fn(s.state.clone())
	s.state = next
	observers := make([]func(State), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(next.clone())
	}
	return next.clone()
}

// commit replaces the state wholesale
func (s *Store) commit(next State) State {
	return s.update(func(State) State { return next })
}

// Hydrate restores the session from storage. It always resolves to a terminal
// (non loading) state and never fails; problems downgrade to anonymous.
func (s *Store) Hydrate(ctx context.Context) State {
	access, ok, err := s.storage.Get(ctx, credstore.KeyAccessToken)
	if err != nil {
		log.Warn().Err(err).Msg("Reading stored credentials failed, starting anonymous")
		return s.commit(anonymous(""))
	}
	if !ok || access == "" {
		return s.commit(anonymous(""))
	}

	if user, ok := s.cachedUser(ctx); ok {
		log.Debug().Str("user", user.Username).Msg("Session restored from cache")
		return s.commit(authenticated(user))
	}

	user, err := s.currentUser(ctx, access)
	if err != nil {
		log.Warn().Err(err).Msg("Stored token rejected, clearing credentials")
		s.clearCredentials(ctx)
		return s.commit(anonymous(""))
	}
	if err := s.cacheUser(ctx, user); err != nil {
		log.Warn().Err(err).Msg("Caching user snapshot failed")
	}
	log.Info().Str("user", user.Username).Str("role", string(user.Role)).Msg("Session restored")
	return s.commit(authenticated(user))
}

// Login exchanges credentials for a token pair, fetches the profile and persists both
func (s *Store) Login(ctx context.Context, creds Credentials) Result {
	s.update(func(st State) State {
		st.Loading = true
		return st
	})
	return s.completeLogin(ctx, creds)
}

// Register creates the account and then logs in with the same credentials
func (s *Store) Register(ctx context.Context, reg Registration) Result {
	s.update(func(st State) State {
		st.Loading = true
		return st
	})

	err := reg.Validate()
	if err == nil {
		err = s.backend.Register(ctx, reg)
	}
	if err != nil {
		msg, ok := apperrors.FirstFieldError(err, "username", "email", "password", "password2")
		if !ok {
			msg = failureMessage(err, msgRegistrationFailed)
		}
		log.Info().Err(err).Str("user", reg.Username).Msg("Registration failed")
		s.clearCredentials(ctx)
		s.commit(anonymous(msg))
		return Result{Error: msg}
	}

	log.Info().Str("user", reg.Username).Msg("Registered, logging in")
	return s.completeLogin(ctx, Credentials{Username: reg.Username, Password: reg.Password})
}

func (s *Store) completeLogin(ctx context.Context, creds Credentials) Result {
	user, err := s.login(ctx, creds)
	if err != nil {
		msg := failureMessage(err, msgLoginFailed)
		log.Info().Err(err).Str("user", creds.Username).Msg("Login failed")
		s.clearCredentials(ctx)
		s.commit(anonymous(msg))
		return Result{Error: msg}
	}

	log.Info().Str("user", user.Username).Str("role", string(user.Role)).Msg("Login succeeded")
	s.commit(authenticated(user))
	return Result{Success: true, User: user.Clone()}
}

func (s *Store) login(ctx context.Context, creds Credentials) (*users.User, error) {
	pair, err := s.backend.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	if err := s.storage.Set(ctx, credstore.KeyAccessToken, pair.AccessToken); err != nil {
		return nil, err
	}
	if err := s.storage.Set(ctx, credstore.KeyRefreshToken, pair.RefreshToken); err != nil {
		return nil, err
	}

	user, err := s.backend.CurrentUser(ctx, pair.AccessToken)
	if err != nil {
		return nil, apperrors.Wrapf(err, "fetch profile")
	}
	if err := s.cacheUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Logout clears stored credentials and resets to anonymous. Calling it again is harmless.
func (s *Store) Logout(ctx context.Context) State {
	s.clearCredentials(ctx)
	return s.commit(anonymous(""))
}

// ClearError resets the error without touching anything else
func (s *Store) ClearError() State {
	return s.update(func(st State) State {
		st.Error = ""
		return st
	})
}

// AccessToken returns a usable access token for outbound API calls, refreshing an
// expired one first. When the refresh fails the session is logged out.
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	if !s.Snapshot().Authenticated {
		return "", apperrors.ErrAuthentication
	}
	access, ok, err := s.storage.Get(ctx, credstore.KeyAccessToken)
	if err != nil {
		return "", err
	}
	if !ok || access == "" {
		return "", apperrors.ErrAuthentication
	}
	if !tokenExpired(access, s.now()) {
		return access, nil
	}

	fresh, err := s.refresh(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Token refresh failed, logging out")
		s.Logout(ctx)
		return "", err
	}
	return fresh, nil
}

// currentUser fetches the profile, refreshing the access token when it has
// expired or the backend answers 401, and retrying once. A 403 is not retried.
func (s *Store) currentUser(ctx context.Context, access string) (*users.User, error) {
	if tokenExpired(access, s.now()) {
		fresh, err := s.refresh(ctx)
		if err != nil {
			return nil, err
		}
		access = fresh
	}

	user, err := s.backend.CurrentUser(ctx, access)
	if !apperrors.Is(err, apperrors.ErrAuthentication) {
		return user, err
	}
	fresh, rerr := s.refresh(ctx)
	if rerr != nil {
		return nil, err
	}
	return s.backend.CurrentUser(ctx, fresh)
}

func (s *Store) refresh(ctx context.Context) (string, error) {
	refresh, ok, err := s.storage.Get(ctx, credstore.KeyRefreshToken)
	if err != nil {
		return "", err
	}
	if !ok || refresh == "" {
		return "", apperrors.ErrNoRefreshToken
	}
	access, err := s.backend.Refresh(ctx, refresh)
	if err != nil {
		return "", apperrors.Wrapf(err, "refresh access token")
	}
	if err := s.storage.Set(ctx, credstore.KeyAccessToken, access); err != nil {
		return "", err
	}
	log.Debug().Msg("Access token refreshed")
	return access, nil
}

func (s *Store) cachedUser(ctx context.Context) (*users.User, bool) {
	raw, ok, err := s.storage.Get(ctx, credstore.KeyUser)
	if err != nil || !ok || raw == "" {
		return nil, false
	}
	var u users.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		log.Warn().Err(err).Msg("Discarding unreadable cached user")
		return nil, false
	}
	return &u, true
}

func (s *Store) cacheUser(ctx context.Context, u *users.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return apperrors.Wrapf(err, "encode user")
	}
	return s.storage.Set(ctx, credstore.KeyUser, string(data))
}

func (s *Store) clearCredentials(ctx context.Context) {
	if err := s.storage.Delete(ctx, credstore.AllKeys...); err != nil {
		log.Err(err).Msg("Clearing stored credentials failed")
	}
}

func failureMessage(err error, fallback string) string {
	if apperrors.Is(err, apperrors.ErrNetwork) {
		return msgUnreachable
	}
	return apperrors.Message(err, fallback)
}
