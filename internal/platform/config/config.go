package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// minSessionSecretLength is the smallest secret accepted for signing session cookies.
const minSessionSecretLength = 32

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	SessionSecret string        `env:"SESSION_SECRET"`
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" default:"168h"` // 7 days

	OAuthClientID     string `env:"OAUTH_CLIENT_ID"`
	OAuthClientSecret string `env:"OAUTH_CLIENT_SECRET"`
	OAuthRedirectURL  string `env:"OAUTH_REDIRECT_URL"`
	OAuthAuthURL      string `env:"OAUTH_AUTH_URL"`
	OAuthTokenURL     string `env:"OAUTH_TOKEN_URL"`
	OAuthUserInfoURL  string `env:"OAUTH_USERINFO_URL"`
	OAuthScopes       string `env:"OAUTH_SCOPES" default:"openid email profile"`

	EmotionLexiconPath string        `env:"EMOTION_LEXICON_PATH"`
	MaxTextLength      int           `env:"MAX_TEXT_LENGTH" default:"5000"`
	StatsCacheTTL      time.Duration `env:"STATS_CACHE_TTL" default:"30s"`
}

// Scopes splits OAuthScopes on whitespace and commas.
func (c *Config) Scopes() []string {
	return strings.FieldsFunc(c.OAuthScopes, func(r rune) bool {
		return r == ' ' || r == ','
	})
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	// Checked in a fixed order so the reported field is stable.
	required := []struct {
		name  string
		value string
	}{
		{"DATABASE_URL", cfg.DatabaseURL},
		{"REDIS_URL", cfg.RedisURL},
		{"SESSION_SECRET", cfg.SessionSecret},
		{"OAUTH_CLIENT_ID", cfg.OAuthClientID},
		{"OAUTH_CLIENT_SECRET", cfg.OAuthClientSecret},
		{"OAUTH_REDIRECT_URL", cfg.OAuthRedirectURL},
		{"OAUTH_AUTH_URL", cfg.OAuthAuthURL},
		{"OAUTH_TOKEN_URL", cfg.OAuthTokenURL},
		{"OAUTH_USERINFO_URL", cfg.OAuthUserInfoURL},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}

	if len(cfg.SessionSecret) < minSessionSecretLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d bytes, got %d", minSessionSecretLength, len(cfg.SessionSecret))
	}

	if cfg.MaxTextLength <= 0 {
		return errors.New("MAX_TEXT_LENGTH must be positive")
	}
	if cfg.StatsCacheTTL <= 0 {
		return errors.New("STATS_CACHE_TTL must be positive")
	}
	if len(cfg.Scopes()) == 0 {
		return errors.New("OAUTH_SCOPES must name at least one scope")
	}

	if cfg.IsProduction() {
		if err := validateProductionSSL(cfg.DatabaseURL); err != nil {
			return err
		}
	}

	return nil
}

func validateProductionSSL(databaseURL string) error {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}
	mode := strings.ToLower(u.Query().Get("sslmode"))
	if mode == "disable" || mode == "allow" {
		return fmt.Errorf("DATABASE_URL uses sslmode=%s which is not allowed in production", mode)
	}
	return nil
}
