package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultSessionSecret = "change-me-session-secret-32-bytes"
	minSessionSecretLen  = 32
)

type Config struct {
	AppEnv    string
	Port      int
	APIPrefix string

	Upstream UpstreamConfig
	Database DatabaseConfig
	Session  SessionConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Schedule ScheduleConfig
}

type UpstreamConfig struct {
	BaseURL   string
	Timeout   time.Duration
	JWTSecret string
}

type DatabaseConfig struct {
	URL string
}

type SessionConfig struct {
	Secret       string
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
}

// RedisConfig is optional; an empty Addr disables the space list cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ScheduleConfig controls the booking grid.
type ScheduleConfig struct {
	Location          *time.Location
	BusinessStartHour int
	BusinessEndHour   int
}

func Load() (*Config, error) {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		AppEnv:    strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV"))),
		Port:      v.GetInt("PORT"),
		APIPrefix: v.GetString("API_PREFIX"),
	}

	cfg.Upstream = UpstreamConfig{
		BaseURL:   strings.TrimRight(strings.TrimSpace(v.GetString("UPSTREAM_API_URL")), "/"),
		Timeout:   parseDuration(v.GetString("UPSTREAM_TIMEOUT"), 10*time.Second),
		JWTSecret: strings.TrimSpace(v.GetString("UPSTREAM_JWT_SECRET")),
	}

	cfg.Database = DatabaseConfig{URL: strings.TrimSpace(v.GetString("DATABASE_URL"))}

	cfg.Session = SessionConfig{
		Secret:       strings.TrimSpace(v.GetString("SESSION_SECRET")),
		TTL:          parseDuration(v.GetString("SESSION_TTL"), 24*time.Hour),
		CookieName:   v.GetString("SESSION_COOKIE_NAME"),
		CookieSecure: v.GetBool("COOKIE_SECURE"),
	}

	cfg.Redis = RedisConfig{
		Addr:     strings.TrimSpace(v.GetString("REDIS_ADDR")),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		TTL:      parseDuration(v.GetString("SPACES_CACHE_TTL"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("CORS_ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	loc, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE value %q: %w", v.GetString("TIMEZONE"), err)
	}
	cfg.Schedule = ScheduleConfig{
		Location:          loc,
		BusinessStartHour: v.GetInt("BUSINESS_START_HOUR"),
		BusinessEndHour:   v.GetInt("BUSINESS_END_HOUR"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return isProdLike(c.AppEnv)
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("UPSTREAM_API_URL", "http://localhost:8000/api")
	v.SetDefault("UPSTREAM_TIMEOUT", "10s")
	v.SetDefault("UPSTREAM_JWT_SECRET", "")

	v.SetDefault("DATABASE_URL", "spacebook.db")

	v.SetDefault("SESSION_SECRET", defaultSessionSecret)
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("SESSION_COOKIE_NAME", "spacebook_session")
	v.SetDefault("COOKIE_SECURE", false)

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SPACES_CACHE_TTL", "24h")

	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("BUSINESS_START_HOUR", 7)
	v.SetDefault("BUSINESS_END_HOUR", 22)
}

func validateConfig(cfg *Config) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if cfg.Upstream.BaseURL == "" {
		return errors.New("UPSTREAM_API_URL must not be empty")
	}
	if cfg.Upstream.Timeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be > 0")
	}
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL must not be empty")
	}
	if cfg.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if len(cfg.Session.Secret) < minSessionSecretLen {
		return fmt.Errorf("SESSION_SECRET must be at least %d bytes", minSessionSecretLen)
	}
	if cfg.Session.CookieName == "" {
		return errors.New("SESSION_COOKIE_NAME must not be empty")
	}
	sh, eh := cfg.Schedule.BusinessStartHour, cfg.Schedule.BusinessEndHour
	if sh < 0 || eh > 23 || sh > eh {
		return fmt.Errorf("business hours must satisfy 0 <= BUSINESS_START_HOUR <= BUSINESS_END_HOUR <= 23")
	}

	if isProdLike(cfg.AppEnv) {
		if cfg.Session.Secret == defaultSessionSecret {
			return fmt.Errorf("in prod/release SESSION_SECRET must be set and not default")
		}
		if !cfg.Session.CookieSecure {
			return fmt.Errorf("in prod/release COOKIE_SECURE must be true")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
