package config_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-storefront/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "HOST", "ENV", "STORAGE_DRIVER", "CORS_ORIGINS", "BACKEND_TIMEOUT", "REDIS_DB"} {
		t.Setenv(k, "")
	}
	c := config.New()

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "127.0.0.1:8080", c.GetListenAddr())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, "file", c.GetStorageDriver())
	require.Equal(t, 30*time.Second, c.GetBackendTimeout())
	require.Equal(t, 0, c.GetRedisDB())
	require.Empty(t, c.GetAllowedOrigins())
	require.Contains(t, c.GetAllowedHeaders(), "Authorization")
}

func TestOverrides(t *testing.T) {
	t.Setenv("PORT", ":9000")
	t.Setenv("HOST", "0.0.0.0")
	t.Setenv("API_URL", "http://relay.local/api")
	t.Setenv("PROXY_TARGET_URL", "http://10.0.0.5/api")
	t.Setenv("BACKEND_TIMEOUT", "5s")
	t.Setenv("STORAGE_DRIVER", "redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CORS_ORIGINS", "https://shop.example.com, https://admin.example.com")
	c := config.New()

	require.Equal(t, ":9000", c.GetPort())
	require.Equal(t, "0.0.0.0:9000", c.GetListenAddr())
	require.Equal(t, "http://relay.local/api", c.GetBackendURL())
	require.Equal(t, "http://10.0.0.5/api", c.GetProxyTargetURL())
	require.Equal(t, 5*time.Second, c.GetBackendTimeout())
	require.Equal(t, "redis", c.GetStorageDriver())
	require.Equal(t, 3, c.GetRedisDB())

	origins := c.GetAllowedOrigins()
	require.True(t, origins.IsAllowedOrigin("https://shop.example.com"))
	require.True(t, origins.IsAllowedOrigin("https://admin.example.com"))
	require.False(t, origins.IsAllowedOrigin("*"))
}

func TestTrustsRequest(t *testing.T) {
	request := func(headers ...string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "http://127.0.0.1:8080/api/users/", nil)
		for i := 0; i+1 < len(headers); i += 2 {
			r.Header.Set(headers[i], headers[i+1])
		}
		return r
	}
	none := config.AllowedOrigins{}
	wildcard := config.AllowedOrigins{"*": {}}
	listed := config.AllowedOrigins{"https://admin.example.com": {}}

	require.True(t, none.TrustsRequest(request()))
	require.True(t, none.TrustsRequest(request("Origin", "http://127.0.0.1:8080")))
	require.True(t, none.TrustsRequest(request("Sec-Fetch-Site", "same-origin")))

	require.False(t, none.TrustsRequest(request("Origin", "https://evil.example")))
	require.False(t, wildcard.TrustsRequest(request("Origin", "https://evil.example")))
	require.False(t, none.TrustsRequest(request("Origin", "null")))
	require.False(t, none.TrustsRequest(request("Sec-Fetch-Site", "cross-site")))
	require.False(t, none.TrustsRequest(request("Sec-Fetch-Site", "same-site")))

	require.True(t, listed.TrustsRequest(request("Origin", "https://admin.example.com", "Sec-Fetch-Site", "cross-site")))
	require.False(t, listed.TrustsRequest(request("Origin", "https://shop.example.com")))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("APP_NAME=Tienda\n"), 0o600))
	t.Setenv("APP_NAME", "")
	os.Unsetenv("APP_NAME")

	require.NoError(t, config.LoadDotEnv(file))
	require.Equal(t, "Tienda", config.New().GetAppName())

	require.NoError(t, config.LoadDotEnv(filepath.Join(dir, "missing.env")))
}
