package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is built once at startup and never mutated afterwards. Every
// component receives the values it needs from here instead of reading the
// environment itself.
type Config struct {
	Port string
	Env  string

	DatabaseURL string

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration

	WhitelistOrigins []string
	AdminEmails      []string

	CloudinaryURL string
	SentryDSN     string
	CronSecret    string

	DefaultPageLimit int
	MaxPageLimit     int

	RateLimitRPS       float64
	RateLimitBurst     int
	AuthRateLimitRPS   float64
	AuthRateLimitBurst int

	DBMaxOpenConns        int
	DBMaxIdleConns        int
	DBConnMaxLifetime     time.Duration
	DBConnMaxIdleTime     time.Duration
	RefreshTokenSweepSize int
}

// Load reads the process environment into a Config. The two signing secrets
// must be present and distinct so an access token can never stand in for a
// refresh token.
func Load() (Config, error) {
	cfg := Config{
		Port:        envOrDefault("PORT", "8080"),
		Env:         envOrDefault("APP_ENV", "development"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),

		AccessTokenSecret:  strings.TrimSpace(os.Getenv("JWT_ACCESS_SECRET")),
		RefreshTokenSecret: strings.TrimSpace(os.Getenv("JWT_REFRESH_SECRET")),
		AccessTokenTTL:     envMinutesOrDefault("ACCESS_TOKEN_TTL_MINUTES", 15),
		RefreshTokenTTL:    envHoursOrDefault("REFRESH_TOKEN_TTL_HOURS", 168),

		WhitelistOrigins: envListOrDefault("WHITELIST_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		AdminEmails:      envListOrDefault("WHITELIST_ADMIN_EMAILS", nil),

		CloudinaryURL: strings.TrimSpace(os.Getenv("CLOUDINARY_URL")),
		SentryDSN:     strings.TrimSpace(os.Getenv("SENTRY_DSN")),
		CronSecret:    strings.TrimSpace(os.Getenv("CRON_SECRET")),

		DefaultPageLimit: envIntOrDefault("DEFAULT_PAGE_LIMIT", 20),
		MaxPageLimit:     envIntOrDefault("MAX_PAGE_LIMIT", 50),

		RateLimitRPS:       envFloatOrDefault("RATE_LIMIT_RPS", 50),
		RateLimitBurst:     envIntOrDefault("RATE_LIMIT_BURST", 100),
		AuthRateLimitRPS:   envFloatOrDefault("AUTH_RATE_LIMIT_RPS", 2),
		AuthRateLimitBurst: envIntOrDefault("AUTH_RATE_LIMIT_BURST", 5),

		DBMaxOpenConns:        envIntOrDefault("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:        envIntOrDefault("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime:     envMinutesOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30),
		DBConnMaxIdleTime:     envMinutesOrDefault("DB_CONN_MAX_IDLE_TIME_MINUTES", 10),
		RefreshTokenSweepSize: envIntOrDefault("REFRESH_TOKEN_SWEEP_SIZE", 500),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing required env: DATABASE_URL")
	}
	if cfg.AccessTokenSecret == "" {
		return Config{}, fmt.Errorf("missing required env: JWT_ACCESS_SECRET")
	}
	if cfg.RefreshTokenSecret == "" {
		return Config{}, fmt.Errorf("missing required env: JWT_REFRESH_SECRET")
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return Config{}, fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envListOrDefault(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envFloatOrDefault(name string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envMinutesOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Minute
}

func envHoursOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Hour
}
