package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/emicollect/client/internal/database"
)

// ClientConfig holds everything the client needs to talk to the
// collection backend and keep local state.
type ClientConfig struct {
	APIBaseURL  string
	HTTPTimeout time.Duration
	StoragePath string
	CacheTTL    time.Duration
}

// Load reads configuration from .env and the environment. Environment
// variables override file values; everything has a working default so
// the client runs with zero configuration against a local backend.
func Load() *ClientConfig {
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env
	viper.ReadInConfig()

	viper.BindEnv("api.base_url", "API_BASE_URL")
	viper.BindEnv("api.timeout", "API_TIMEOUT")
	viper.BindEnv("storage.path", "STORAGE_PATH")
	viper.BindEnv("cache.ttl", "CACHE_TTL")
	viper.BindEnv("redis.enabled", "REDIS_ENABLED")
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.SetDefault("api.base_url", "http://localhost:3000/api")
	viper.SetDefault("api.timeout", 10*time.Second)
	viper.SetDefault("storage.path", database.DefaultStoragePath())
	viper.SetDefault("cache.ttl", 30*time.Second)

	return &ClientConfig{
		APIBaseURL:  viper.GetString("api.base_url"),
		HTTPTimeout: viper.GetDuration("api.timeout"),
		StoragePath: viper.GetString("storage.path"),
		CacheTTL:    viper.GetDuration("cache.ttl"),
	}
}
