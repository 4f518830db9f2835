package structs

import "time"

type Config struct {
	Server    *ServerConfig
	Cors      *CorsConfig
	Database  *DatabaseConfig
	Cache     *CacheConfig
	Auth      *AuthConfig
	RateLimit *RateLimitConfig
	Seed      *SeedConfig
}

type ServerConfig struct {
	AppName         string        // commerce_server
	Environment     string        // development, production
	Port            string        // :8082
	ReadTimeout     time.Duration // in seconds
	WriteTimeout    time.Duration // in seconds
	IdleTimeout     time.Duration // in seconds
	ShutdownTimeout time.Duration // in seconds
	MaxHeaderBytes  int           // in bytes
	BodyLimit       int64         // in bytes
	Timezone        string        // IANA name used when rendering dates
}

type CorsConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

type DatabaseConfig struct {
	Driver       string // pgdriver or pgx
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxConns     int
	MinConns     int
	MaxLifetime  time.Duration
	MaxIdleTime  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	SlowQuery    time.Duration
}

type CacheConfig struct {
	Enabled         bool
	Address         string
	Username        string
	Password        string
	DB              int
	PoolSize        int
	MinIdleConns    int
	MaxIdleConns    int
	PoolTimeout     time.Duration
	IdleTimeout     time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxRetries      int
	MinRetryBackoff time.Duration
	MaxRetryBackoff time.Duration
	ProductTTL      time.Duration
}

type AuthConfig struct {
	TokenSecret  string
	TokenExpiry  time.Duration
	TokenIssuer  string
	CacheUserTTL time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	AuthLimit     int
	AuthWindow    time.Duration
	GeneralLimit  int
	GeneralWindow time.Duration
}

type SeedConfig struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string
}
