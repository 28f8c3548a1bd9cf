package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL,required"`
	TokenSecret string `env:"TOKEN_SECRET,required"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Rate limiting. Zero disables the corresponding window.
	ConnectLimitPerMin      int    `env:"CONNECT_LIMIT_PER_MIN" envDefault:"10"`
	MessageLimitPerMin      int    `env:"MESSAGE_LIMIT_PER_MIN" envDefault:"30"`
	SkipLimitPerMin         int    `env:"SKIP_LIMIT_PER_MIN" envDefault:"15"`
	ReportLimitPerHour      int    `env:"REPORT_LIMIT_PER_HOUR" envDefault:"5"`
	SessionStartLimitPerMin int    `env:"SESSION_START_LIMIT_PER_MIN" envDefault:"6"`
	SessionCooldownSeconds  int    `env:"SESSION_COOLDOWN_SECONDS" envDefault:"5"`
	RateLimitStore          string `env:"RATE_LIMIT_STORE" envDefault:"redis"`

	// Matching and sessions.
	MaxParticipants    int `env:"MAX_PARTICIPANTS" envDefault:"8"`
	SearchAttempts     int `env:"SEARCH_ATTEMPTS" envDefault:"3"`
	SessionIdleSeconds int `env:"SESSION_IDLE_SECONDS" envDefault:"1800"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) SessionCooldown() time.Duration {
	return time.Duration(c.SessionCooldownSeconds) * time.Second
}

func (c *Config) SessionIdleTTL() time.Duration {
	return time.Duration(c.SessionIdleSeconds) * time.Second
}

func (c *Config) Validate(isProduction bool) error {
	if c.MaxParticipants < 2 {
		return fmt.Errorf("MAX_PARTICIPANTS must be at least 2, got %d", c.MaxParticipants)
	}
	if c.RateLimitStore != "redis" && c.RateLimitStore != "memory" {
		return fmt.Errorf("RATE_LIMIT_STORE must be redis or memory, got %q", c.RateLimitStore)
	}

	if isProduction {
		if err := validateSecret("TOKEN_SECRET", c.TokenSecret); err != nil {
			return err
		}
		if c.RateLimitStore == "memory" {
			log.Warn().Msg("RATE_LIMIT_STORE=memory in production: limits are per instance, not global")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
