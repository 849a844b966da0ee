package config

import "time"

type Config interface {
	EnvConfig
	CorsConfig
	BackendConfig
	StorageConfig
}

type EnvConfig interface {
	GetPort() string
	GetListenAddr() string
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type BackendConfig interface {
	GetBackendURL() string
	GetProxyTargetURL() string
	GetBackendTimeout() time.Duration
}

type StorageConfig interface {
	GetStorageDriver() string
	GetStorageKey() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
}

type mainConfig struct {
	EnvVars
	Cors
	Backend
	Storage
}

func New() Config {
	return mainConfig{}
}
