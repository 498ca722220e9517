package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full service configuration, parsed from the environment so
// main stays lean. Defaults suit local development.
type Config struct {
	Addr     string `env:"CAMPREG_ADDR" envDefault:":8080"`
	LogLevel string `env:"CAMPREG_LOG_LEVEL" envDefault:"info"`

	// DatabaseURL enables the Postgres stores; empty falls back to in-memory
	// stores seeded with development data.
	DatabaseURL string `env:"CAMPREG_DATABASE_URL"`

	Redis RedisConfig `envPrefix:"CAMPREG_REDIS_"`

	// SessionTTL bounds how long an abandoned wizard session is kept.
	SessionTTL time.Duration `env:"CAMPREG_SESSION_TTL" envDefault:"2h"`

	// DuplicateQuietPeriod is the debounce window for existing-registration
	// lookups while personal info is being typed.
	DuplicateQuietPeriod time.Duration `env:"CAMPREG_DUPLICATE_QUIET" envDefault:"400ms"`

	ArtifactDir string `env:"CAMPREG_ARTIFACT_DIR" envDefault:"./payments"`

	JWTSigningKey string        `env:"CAMPREG_JWT_SIGNING_KEY" envDefault:"dev-secret-change-in-production"`
	AdminTokenTTL time.Duration `env:"CAMPREG_ADMIN_TOKEN_TTL" envDefault:"12h"`

	// TelegramToken enables admin notifications; empty disables them.
	TelegramToken string `env:"CAMPREG_TELEGRAM_TOKEN"`
}

// RedisConfig mirrors the knobs the platform redis client applies. Empty URL
// means Redis is not configured and the in-memory session store is used.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
