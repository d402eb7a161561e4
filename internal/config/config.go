// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Logging  LoggingConfig
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST,default=0.0.0.0"`
	Port            int           `env:"SERVER_PORT,default=8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT,default=15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT,default=15s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
}

// DatabaseConfig controls the postgres connection. An empty URL selects the
// in-memory store, which is intended for local development only.
type DatabaseConfig struct {
	URL          string        `env:"DATABASE_URL,default="`
	MaxOpenConns int           `env:"DATABASE_MAX_OPEN_CONNS,default=25"`
	MaxIdleConns int           `env:"DATABASE_MAX_IDLE_CONNS,default=5"`
	ConnLifetime time.Duration `env:"DATABASE_CONN_LIFETIME,default=5m"`
}

// RedisConfig controls the optional redis-backed verification code store.
// When Addr is empty the process-local store is used; that store does not
// survive restarts and must not be used behind more than one instance.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,default="`
	Password string `env:"REDIS_PASSWORD,default="`
	DB       int    `env:"REDIS_DB,default=0"`
}

// AuthConfig controls vendor token issuance and validation.
type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET,default="`
	TokenTTL  time.Duration `env:"JWT_TOKEN_TTL,default=24h"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL,default=info"`
	Format string `env:"LOG_FORMAT,default=json"`
	Output string `env:"LOG_OUTPUT,default=stdout"`
}

// Load reads .env if present and decodes the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	return &cfg, nil
}
