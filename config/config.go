package config

import (
	"commerce_server/structs"
	"sync"
	"time"
)

var (
	configInstance *structs.Config
	configOnce     sync.Once
)

func GetConfig() *structs.Config {
	configOnce.Do(func() {
		configInstance = Load()
	})
	return configInstance
}

// Load reads the configuration from the environment without touching the singleton.
func Load() *structs.Config {
	return &structs.Config{
		Server: &structs.ServerConfig{
			AppName:         getEnvAsString("APP_NAME", "commerce_server"),
			Environment:     getEnvAsString("APP_ENV", "development"),
			Port:            getEnvAsString("APP_PORT", ":8082"),
			ReadTimeout:     getEnvAsTimeDuration("SERVER_READ_TIME_OUT", 15*time.Second),
			WriteTimeout:    getEnvAsTimeDuration("SERVER_WRITE_TIME_OUT", 15*time.Second),
			IdleTimeout:     getEnvAsTimeDuration("SERVER_IDLE_TIME_OUT", 60*time.Second),
			ShutdownTimeout: getEnvAsTimeDuration("SERVER_SHUTDOWN_TIME_OUT", 10*time.Second),
			MaxHeaderBytes:  getEnvAsInt("SERVER_MAX_HEADER_BYTES", 1<<20), // 1 MB
			BodyLimit:       int64(getEnvAsInt("SERVER_BODY_LIMIT", 1<<20)),
			Timezone:        getEnvAsString("APP_TIMEZONE", "UTC"),
		},
		Cors: &structs.CorsConfig{
			AllowedOrigins:   getEnvAsSlice("CORS_ALLOW_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods:   getEnvAsSlice("CORS_ALLOW_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getEnvAsSlice("CORS_ALLOW_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization"}),
			AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", false),
			ExposedHeaders:   getEnvAsSlice("CORS_EXPOSED_HEADERS", []string{"Content-Length"}),
			MaxAge:           getEnvAsInt("CORS_MAX_AGE", 300),
		},
		Database: &structs.DatabaseConfig{
			Driver:       getEnvAsString("DB_DRIVER", "pgdriver"),
			Host:         getEnvAsString("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnvAsString("DB_USER", "postgres"),
			Password:     getEnvAsString("DB_PASSWORD", "password"),
			Name:         getEnvAsString("DB_NAME", "commerce_db"),
			SSLMode:      getEnvAsString("DB_SSL_MODE", "disable"),
			MaxConns:     getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:     getEnvAsInt("DB_MIN_CONNS", 2),
			MaxLifetime:  getEnvAsTimeDuration("DB_MAX_LIFETIME", 30*time.Minute),
			MaxIdleTime:  getEnvAsTimeDuration("DB_MAX_IDLE_TIME", 5*time.Minute),
			ReadTimeout:  getEnvAsTimeDuration("DB_READ_TIMEOUT", 5*time.Second),
			WriteTimeout: getEnvAsTimeDuration("DB_WRITE_TIMEOUT", 5*time.Second),
			SlowQuery:    getEnvAsTimeDuration("DB_SLOW_QUERY", time.Second),
		},
		Cache: &structs.CacheConfig{
			Enabled:         getEnvAsBool("CACHE_ENABLED", true),
			Address:         getEnvAsString("REDIS_ADDRESS", "localhost:6379"),
			Username:        getEnvAsString("REDIS_USERNAME", ""),
			Password:        getEnvAsString("REDIS_PASSWORD", ""),
			DB:              getEnvAsInt("REDIS_DB", 0),
			PoolSize:        getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns:    getEnvAsInt("REDIS_MIN_IDLE_CONNS", 2),
			MaxIdleConns:    getEnvAsInt("REDIS_MAX_IDLE_CONNS", 5),
			PoolTimeout:     getEnvAsTimeDuration("REDIS_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:     getEnvAsTimeDuration("REDIS_IDLE_TIMEOUT", 5*time.Minute),
			DialTimeout:     getEnvAsTimeDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:     getEnvAsTimeDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:    getEnvAsTimeDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			MaxRetries:      getEnvAsInt("REDIS_MAX_RETRIES", 3),
			MinRetryBackoff: getEnvAsTimeDuration("REDIS_MIN_RETRY_BACKOFF", 8*time.Millisecond),
			MaxRetryBackoff: getEnvAsTimeDuration("REDIS_MAX_RETRY_BACKOFF", 512*time.Millisecond),
			ProductTTL:      getEnvAsTimeDuration("CACHE_PRODUCT_TTL", 10*time.Minute),
		},
		Auth: &structs.AuthConfig{
			TokenSecret:  getEnvAsString("AUTH_TOKEN_SECRET", "default_token_secret"),
			TokenExpiry:  getEnvAsTimeDuration("AUTH_TOKEN_EXPIRY", 7*24*time.Hour),
			TokenIssuer:  getEnvAsString("AUTH_TOKEN_ISSUER", "commerce_server"),
			CacheUserTTL: getEnvAsTimeDuration("AUTH_CACHE_USER_TTL", 15*time.Minute),
		},
		RateLimit: &structs.RateLimitConfig{
			Enabled:       getEnvAsBool("RATE_LIMIT_ENABLED", true),
			AuthLimit:     getEnvAsInt("RATE_LIMIT_AUTH_LIMIT", 10),
			AuthWindow:    getEnvAsTimeDuration("RATE_LIMIT_AUTH_WINDOW", time.Minute),
			GeneralLimit:  getEnvAsInt("RATE_LIMIT_GENERAL_LIMIT", 120),
			GeneralWindow: getEnvAsTimeDuration("RATE_LIMIT_GENERAL_WINDOW", time.Minute),
		},
		Seed: &structs.SeedConfig{
			AdminName:     getEnvAsString("SEED_ADMIN_NAME", "Admin"),
			AdminEmail:    getEnvAsString("SEED_ADMIN_EMAIL", "admin@admin.com"),
			AdminPassword: getEnvAsString("SEED_ADMIN_PASSWORD", "password123"),
		},
	}
}

func GetLogLevel() string {
	if GetConfig().Server.Environment == "production" {
		return "info"
	}
	return "debug"
}

// Location returns the timezone used to render timestamps, falling back to UTC.
func Location() *time.Location {
	loc, err := time.LoadLocation(GetConfig().Server.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
