package config

import "strconv"

type Storage struct{}

var _ StorageConfig = Storage{}

// GetStorageDriver is one of memory, file, sqlite or redis
func (Storage) GetStorageDriver() string {
	return GetEnv("STORAGE_DRIVER", "file")
}

// GetStorageKey seals the file driver when set
func (Storage) GetStorageKey() string {
	return GetEnv("STORAGE_KEY", "")
}

func (Storage) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Storage) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Storage) GetRedisDB() int {
	n, err := strconv.Atoi(GetEnv("REDIS_DB", "0"))
	if err != nil {
		return 0
	}
	return n
}
