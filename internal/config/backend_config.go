package config

import "time"

const (
	backendURLVar  = "API_URL"
	proxyTargetVar = "PROXY_TARGET_URL"
	timeoutVar     = "BACKEND_TIMEOUT"
)

type Backend struct{}

var _ BackendConfig = Backend{}

// GetBackendURL is the base the session store's auth calls are made against.
// It normally points at the relay ("http://localhost:3000/api").
func (Backend) GetBackendURL() string {
	return GetEnv(backendURLVar, "http://localhost:8000/api")
}

// GetProxyTargetURL is the fixed origin the relay forwards /api/* to.
func (Backend) GetProxyTargetURL() string {
	return GetEnv(proxyTargetVar, "http://localhost:8000/api")
}

func (Backend) GetBackendTimeout() time.Duration {
	if d, err := time.ParseDuration(GetEnv(timeoutVar, "")); err == nil && d > 0 {
		return d
	}
	return 30 * time.Second
}
