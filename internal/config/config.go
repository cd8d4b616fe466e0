package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values for the server and the worker.
type Config struct {
	AppPort  string `mapstructure:"APP_PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	SearchAPIURL     string        `mapstructure:"SEARCH_API_URL"`
	SearchAPITimeout time.Duration `mapstructure:"SEARCH_API_TIMEOUT"`
	SearchAPIRPS     float64       `mapstructure:"SEARCH_API_RPS"`

	TemporalHost string `mapstructure:"TEMPORAL_HOST"`
	TaskQueue    string `mapstructure:"TASK_QUEUE"`

	// Empty DatabaseURL runs without Postgres: the worker keeps seat holds in
	// memory and the server only sees the demo occupancy.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	Migrate     bool   `mapstructure:"MIGRATE"`

	// Session storage.
	SessionBackend string        `mapstructure:"SESSION_BACKEND"`
	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`
	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	RedisPassword  string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int           `mapstructure:"REDIS_DB"`

	CookieHashKeyB64  string `mapstructure:"COOKIE_HASH_KEY"`
	CookieBlockKeyB64 string `mapstructure:"COOKIE_BLOCK_KEY"`
	CookieHashKey     []byte `mapstructure:"-"`
	CookieBlockKey    []byte `mapstructure:"-"`

	MaxRequestsPerMin int `mapstructure:"MAX_REQUESTS_PER_MIN"`
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxy bool `mapstructure:"TRUST_PROXY"`

	// Comma separated origins allowed to call the API with the session cookie.
	CORSAllowedOriginsRaw string   `mapstructure:"CORS_ALLOWED_ORIGINS"`
	CORSAllowedOrigins    []string `mapstructure:"-"`
}

const (
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

var keys = map[string]any{
	"APP_PORT":             "8080",
	"ENV":                  "development",
	"LOG_LEVEL":            "info",
	"SEARCH_API_URL":       "http://localhost:3000/api",
	"SEARCH_API_TIMEOUT":   "30s",
	"SEARCH_API_RPS":       5.0,
	"TEMPORAL_HOST":        "localhost:7233",
	"TASK_QUEUE":           "flight-booking",
	"DATABASE_URL":         "",
	"MIGRATE":              true,
	"SESSION_BACKEND":      SessionBackendMemory,
	"SESSION_TTL":          "2h",
	"REDIS_ADDR":           "localhost:6379",
	"REDIS_PASSWORD":       "",
	"REDIS_DB":             0,
	"COOKIE_HASH_KEY":      "",
	"COOKIE_BLOCK_KEY":     "",
	"MAX_REQUESTS_PER_MIN": 120,
	"TRUST_PROXY":          false,
	"CORS_ALLOWED_ORIGINS": "http://localhost:5173,http://localhost:3000",
}

// Load reads .env (when present), config.yaml (when present) and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	for k, def := range keys {
		v.SetDefault(k, def)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := cfg.loadCookieKeys(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.SessionBackend {
	case SessionBackendRedis, SessionBackendMemory:
	default:
		return fmt.Errorf("invalid SESSION_BACKEND %q (want %s or %s)", c.SessionBackend, SessionBackendRedis, SessionBackendMemory)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.SearchAPITimeout <= 0 {
		return fmt.Errorf("SEARCH_API_TIMEOUT must be positive")
	}
	if c.MaxRequestsPerMin < 1 {
		return fmt.Errorf("MAX_REQUESTS_PER_MIN must be at least 1")
	}
	c.SearchAPIURL = strings.TrimRight(c.SearchAPIURL, "/")

	c.CORSAllowedOrigins = nil
	for _, origin := range strings.Split(c.CORSAllowedOriginsRaw, ",") {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "" {
			continue
		}
		if origin == "*" {
			return fmt.Errorf("CORS_ALLOWED_ORIGINS cannot contain *: the API uses credentialed requests")
		}
		c.CORSAllowedOrigins = append(c.CORSAllowedOrigins, origin)
	}
	return nil
}

// loadCookieKeys decodes the base64 cookie keys. Outside production missing
// keys are generated, which invalidates sessions on every restart.
func (c *Config) loadCookieKeys() error {
	if c.CookieHashKeyB64 == "" || c.CookieBlockKeyB64 == "" {
		if c.IsProduction() {
			return fmt.Errorf("COOKIE_HASH_KEY and COOKIE_BLOCK_KEY are required in production")
		}
		c.CookieHashKey = securecookie.GenerateRandomKey(32)
		c.CookieBlockKey = securecookie.GenerateRandomKey(32)
		return nil
	}

	var err error
	c.CookieHashKey, err = base64.StdEncoding.DecodeString(strings.TrimSpace(c.CookieHashKeyB64))
	if err != nil {
		return fmt.Errorf("COOKIE_HASH_KEY: %w", err)
	}
	c.CookieBlockKey, err = base64.StdEncoding.DecodeString(strings.TrimSpace(c.CookieBlockKeyB64))
	if err != nil {
		return fmt.Errorf("COOKIE_BLOCK_KEY: %w", err)
	}
	switch len(c.CookieBlockKey) {
	case 16, 24, 32:
	default:
		return fmt.Errorf("COOKIE_BLOCK_KEY must decode to 16, 24 or 32 bytes")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.AppPort
}
