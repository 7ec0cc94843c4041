package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

// MinSigningKeyLength is the shortest JWT signing key accepted in prod.
const MinSigningKeyLength = 32

var (
	ErrUnknownEnv        = errors.New("unknown env")
	ErrMissingSigningKey = errors.New("jwt signing key is required")
	ErrWeakSigningKey    = errors.New("jwt signing key is too short")
)

type Config struct {
	Env      string `env:"ENV" env-required:"true"`
	HTTP     HTTPConfig
	Postgres PostgresConfig
	JWT      JWTConfig
	Admin    AdminConfig
	CORS     CORSConfig
}

type HTTPConfig struct {
	Host              string        `env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port              string        `env:"HTTP_PORT" env-default:"8000"`
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type PostgresConfig struct {
	Host           string        `env:"POSTGRES_HOST" env-required:"true"`
	Port           int           `env:"POSTGRES_PORT" env-default:"5432"`
	Username       string        `env:"POSTGRES_USERNAME" env-required:"true"`
	Password       string        `env:"POSTGRES_PASSWORD" env-required:"true"`
	Database       string        `env:"POSTGRES_DATABASE" env-required:"true"`
	SSLMode        string        `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	MaxConns       int32         `env:"POSTGRES_MAX_CONNS" env-default:"10"`
	ConnectTimeout time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `env:"POSTGRES_PING_TIMEOUT" env-default:"10s"`
	MigrateOnStart bool          `env:"POSTGRES_MIGRATE_ON_START" env-default:"true"`
}

// URL returns the connection string understood by pgxpool.ParseConfig.
func (c PostgresConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Username, c.Password, c.Host,
		c.Port, c.Database, c.SSLMode)
}

type JWTConfig struct {
	SigningKey string        `env:"JWT_SIGNING_KEY"`
	TokenTTL   time.Duration `env:"JWT_TOKEN_TTL" env-default:"168h"`
}

type AdminConfig struct {
	// Token enables the admin purge endpoint when non-empty.
	Token string `env:"ADMIN_TOKEN"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`
}

// IsDevelopment reports whether the config belongs to a non-production env.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDev || c.Env == EnvLocal
}

// Validate checks the values cleanenv cannot express with tags.
//
// An empty signing key is only tolerated outside prod; the caller is
// expected to substitute an ephemeral key in that case.
func (c *Config) Validate() error {
	switch c.Env {
	case EnvDev, EnvProd, EnvLocal:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEnv, c.Env)
	}

	if c.IsDevelopment() {
		return nil
	}

	if c.JWT.SigningKey == "" {
		return ErrMissingSigningKey
	}
	if len(c.JWT.SigningKey) < MinSigningKeyLength {
		return fmt.Errorf("%w: need at least %d bytes", ErrWeakSigningKey, MinSigningKeyLength)
	}
	return nil
}
