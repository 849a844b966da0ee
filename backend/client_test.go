package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-storefront/backend"
	"github.com/jrsteele09/go-storefront/credstore"
	apperrors "github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/jrsteele09/go-storefront/sessions"
	"github.com/jrsteele09/go-storefront/users"
	"github.com/stretchr/testify/require"
)

// newAuthAPI mimics the storefront REST API: admin/admin123 is the only account
func newAuthAPI(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token/", func(w http.ResponseWriter, r *http.Request) {
		var creds sessions.Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		w.Header().Set("Content-Type", "application/json")
		if creds.Username != "admin" || creds.Password != "admin123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"No active account found with the given credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access":"access-1","refresh":"refresh-1"}`))
	})
	mux.HandleFunc("POST /api/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["refresh"] != "refresh-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Token is invalid or expired","code":"token_not_valid"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access":"access-2"}`))
	})
	mux.HandleFunc("GET /api/users/profile/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer access-1", "Bearer access-2":
			_, _ = w.Write([]byte(`{"id":1,"username":"admin","email":"admin@example.com","first_name":"Ada","last_name":"Min","role":"ADMIN","is_staff":true}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Given token not valid for any token type"}`))
		}
	})
	mux.HandleFunc("POST /api/users/", func(w http.ResponseWriter, r *http.Request) {
		var reg sessions.Registration
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reg))
		if reg.Username == "admin" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"username":["A user with that username already exists."],"email":"Enter a valid email address."}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":5}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginAndCurrentUser(t *testing.T) {
	api := newAuthAPI(t)
	c := backend.New(api.URL+"/api", api.Client(), 0)

	pair, err := c.Login(context.Background(), sessions.Credentials{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	require.Equal(t, sessions.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"}, pair)

	u, err := c.CurrentUser(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "admin", u.Username)
	require.Equal(t, users.RoleAdmin, u.Role)
	require.True(t, u.IsStaff)
	require.Equal(t, "Ada", u.FirstName)
}

func TestLoginBadCredentials(t *testing.T) {
	api := newAuthAPI(t)
	c := backend.New(api.URL+"/api/", api.Client(), 0)

	_, err := c.Login(context.Background(), sessions.Credentials{Username: "admin", Password: "wrong"})
	require.ErrorIs(t, err, apperrors.ErrAuthentication)
	require.Equal(t, "No active account found with the given credentials", apperrors.Message(err, ""))
}

func TestCurrentUserRejectedToken(t *testing.T) {
	api := newAuthAPI(t)
	c := backend.New(api.URL+"/api", api.Client(), 0)

	_, err := c.CurrentUser(context.Background(), "forged")
	require.ErrorIs(t, err, apperrors.ErrAuthentication)
}

func TestRefresh(t *testing.T) {
	api := newAuthAPI(t)
	c := backend.New(api.URL+"/api", api.Client(), 0)

	access, err := c.Refresh(context.Background(), "refresh-1")
	require.NoError(t, err)
	require.Equal(t, "access-2", access)

	_, err = c.Refresh(context.Background(), "stale")
	require.ErrorIs(t, err, apperrors.ErrAuthentication)
}

func TestRegisterFieldErrors(t *testing.T) {
	api := newAuthAPI(t)
	c := backend.New(api.URL+"/api", api.Client(), 0)

	require.NoError(t, c.Register(context.Background(), sessions.Registration{Username: "nuevo", Email: "n@example.com", Password: "secreto1"}))

	err := c.Register(context.Background(), sessions.Registration{Username: "admin", Email: "bad", Password: "secreto1"})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	msg, ok := apperrors.FirstFieldError(err, "username", "email")
	require.True(t, ok)
	require.Equal(t, "A user with that username already exists.", msg)

	msg, ok = apperrors.FirstFieldError(err, "email")
	require.True(t, ok)
	require.Equal(t, "Enter a valid email address.", msg)
}

func TestNotFoundAndNetworkErrors(t *testing.T) {
	api := newAuthAPI(t)
	c := backend.New(api.URL+"/nothing-here", api.Client(), 0)

	_, err := c.CurrentUser(context.Background(), "access-1")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	api.Close()
	_, err = c.Login(context.Background(), sessions.Credentials{Username: "admin", Password: "admin123"})
	require.ErrorIs(t, err, apperrors.ErrNetwork)
}

func TestDefaultHTTPClient(t *testing.T) {
	api := newAuthAPI(t)
	c := backend.New(api.URL+"/api", nil, 5*time.Second)

	_, err := c.Login(context.Background(), sessions.Credentials{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
}

func TestStoreAgainstHTTPBackend(t *testing.T) {
	api := newAuthAPI(t)
	storage := credstore.NewMemoryStorage()
	store := sessions.NewStore(backend.New(api.URL+"/api", api.Client(), 0), storage)
	store.Hydrate(context.Background())

	res := store.Login(context.Background(), sessions.Credentials{Username: "admin", Password: "admin123"})
	require.True(t, res.Success)
	require.True(t, users.IsAdmin.Allows(store.Snapshot().User))

	access, ok, err := storage.Get(context.Background(), credstore.KeyAccessToken)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "access-1", access)

	// a fresh process restores from the cached snapshot
	restarted := sessions.NewStore(backend.New(api.URL+"/api", api.Client(), 0), storage)
	require.True(t, restarted.Hydrate(context.Background()).Authenticated)
}
