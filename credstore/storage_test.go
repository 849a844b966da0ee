package credstore_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-storefront/credstore"
	apperrors "github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// exerciseStorage runs the behaviour every driver must share
func exerciseStorage(t *testing.T, s credstore.Storage) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, credstore.KeyAccessToken)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set(ctx, credstore.KeyAccessToken, "access-1"))
	require.NoError(t, s.Set(ctx, credstore.KeyRefreshToken, "refresh-1"))
	require.NoError(t, s.Set(ctx, credstore.KeyUser, `{"id":1,"username":"admin"}`))

	v, ok, err := s.Get(ctx, credstore.KeyAccessToken)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "access-1", v)

	require.NoError(t, s.Set(ctx, credstore.KeyAccessToken, "access-2"))
	v, _, err = s.Get(ctx, credstore.KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, "access-2", v)

	require.NoError(t, s.Delete(ctx, credstore.AllKeys...))
	for _, k := range credstore.AllKeys {
		_, ok, err := s.Get(ctx, k)
		require.NoError(t, err)
		require.False(t, ok, k)
	}

	// deleting again is fine
	require.NoError(t, s.Delete(ctx, credstore.AllKeys...))
	require.NoError(t, s.Delete(ctx))
}

func TestMemoryStorage(t *testing.T) {
	exerciseStorage(t, credstore.NewMemoryStorage())
}

func TestFileStorage(t *testing.T) {
	s, err := credstore.NewFileStorage(filepath.Join(t.TempDir(), "nested", "credentials.json"), "")
	require.NoError(t, err)
	exerciseStorage(t, s)
}

func TestSealedFileStorage(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.json")

	s, err := credstore.NewFileStorage(path, "correct horse")
	require.NoError(t, err)
	exerciseStorage(t, s)

	require.NoError(t, s.Set(ctx, credstore.KeyRefreshToken, "refresh-secret"))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.False(t, strings.Contains(string(raw), "refresh-secret"))

	reopened, err := credstore.NewFileStorage(path, "correct horse")
	require.NoError(t, err)
	v, ok, err := reopened.Get(ctx, credstore.KeyRefreshToken)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "refresh-secret", v)

	wrongKey, err := credstore.NewFileStorage(path, "battery staple")
	require.NoError(t, err)
	_, _, err = wrongKey.Get(ctx, credstore.KeyRefreshToken)
	require.ErrorIs(t, err, apperrors.ErrStorage)
}

func TestSealedFileKeepsSalt(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.json")

	s, err := credstore.NewFileStorage(path, "correct horse")
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, credstore.KeyAccessToken, "access-1"))
	first, err := os.ReadFile(path)
	require.NoError(t, err)
	salt := first[:16]

	// a reopened store keeps the salt from the file header
	reopened, err := credstore.NewFileStorage(path, "correct horse")
	require.NoError(t, err)
	require.NoError(t, reopened.Set(ctx, credstore.KeyRefreshToken, "refresh-1"))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, salt, second[:16])
	require.NotEqual(t, first[16:40], second[16:40], "every write uses a fresh nonce")

	v, ok, err := s.Get(ctx, credstore.KeyRefreshToken)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "refresh-1", v)

	// the same passphrase in another file gets another salt
	otherPath := filepath.Join(t.TempDir(), "credentials.json")
	other, err := credstore.NewFileStorage(otherPath, "correct horse")
	require.NoError(t, err)
	require.NoError(t, other.Set(ctx, credstore.KeyAccessToken, "access-1"))
	otherRaw, err := os.ReadFile(otherPath)
	require.NoError(t, err)
	require.NotEqual(t, salt, otherRaw[:16])
}

func TestSQLiteStorage(t *testing.T) {
	s, err := credstore.OpenSQLiteStorage(context.Background(), filepath.Join(t.TempDir(), "storefront.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	exerciseStorage(t, s)
}

func TestRedisStorage(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := credstore.NewRedisStorage(client, "install-1")
	exerciseStorage(t, s)

	require.NoError(t, s.Set(context.Background(), credstore.KeyAccessToken, "scoped"))
	v, err := mr.Get("storefront:install-1:access_token")
	require.NoError(t, err)
	require.Equal(t, "scoped", v)

	other := credstore.NewRedisStorage(client, "install-2")
	_, ok, err := other.Get(context.Background(), credstore.KeyAccessToken)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestInstallationIDIsStable(t *testing.T) {
	folder := t.TempDir()
	first, err := credstore.InstallationID(folder)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := credstore.InstallationID(folder)
	require.NoError(t, err)
	require.Equal(t, first, second)

	require.NoError(t, os.WriteFile(filepath.Join(folder, "installation_id"), []byte("garbage"), 0o600))
	third, err := credstore.InstallationID(folder)
	require.NoError(t, err)
	require.NotEqual(t, first, third)
}
