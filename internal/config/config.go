package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the full service configuration, read from the environment.
// DB_DSN is the privileged store credential and never leaves the server;
// AUTH_JWT_SECRET is what caller tokens are validated against.
type Config struct {
	Port        string `env:"PORT" env-default:"8080"`
	DatabaseDSN string `env:"DB_DSN" env-required:"true"`

	JWTSecret string        `env:"AUTH_JWT_SECRET" env-required:"true"`
	JWTIssuer string        `env:"AUTH_JWT_ISSUER" env-default:"swahiba"`
	TokenTTL  time.Duration `env:"AUTH_TOKEN_TTL" env-default:"720h"`

	FeedLimit     int    `env:"NOTIFY_FEED_LIMIT" env-default:"20"`
	ListenChannel string `env:"NOTIFY_LISTEN_CHANNEL" env-default:"notifications_changed"`

	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MIN" env-default:"120"`
	RateLimitBurst     int `env:"RATE_LIMIT_BURST" env-default:"30"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`

	// Per-call deadline for store work triggered by feed signals; request
	// handlers use the request context instead.
	StoreTimeout time.Duration `env:"STORE_CALL_TIMEOUT" env-default:"5s"`
}

func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
