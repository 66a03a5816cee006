package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// authEnv holds raw env values before post-parse validation.
type authEnv struct {
	Secret   string        `env:"BURGER_AUTH_SECRET"`
	Issuer   string        `env:"BURGER_AUTH_ISSUER" envDefault:"burger"`
	TokenTTL time.Duration `env:"BURGER_AUTH_TOKEN_TTL" envDefault:"1h"`
}

// Config defines how ID tokens are signed and verified.
type Config struct {
	Secret   []byte
	Issuer   string
	TokenTTL time.Duration
	Now      func() time.Time
}

// LoadConfigFromEnv reads token signing configuration.
func LoadConfigFromEnv() (Config, error) {
	var raw authEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse auth env: %w", err)
	}
	secret := strings.TrimSpace(raw.Secret)
	if len(secret) < 32 {
		return Config{}, fmt.Errorf("BURGER_AUTH_SECRET must be at least 32 characters")
	}
	if raw.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("BURGER_AUTH_TOKEN_TTL must be positive")
	}
	return Config{
		Secret:   []byte(secret),
		Issuer:   strings.TrimSpace(raw.Issuer),
		TokenTTL: raw.TokenTTL,
		Now:      time.Now,
	}, nil
}
