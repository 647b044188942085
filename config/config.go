package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig    `yaml:"server"`
	Auth        AuthConfig      `yaml:"auth"`
	Backend     BackendConfig   `yaml:"backend"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	Database    DatabaseConfig  `yaml:"database"`
	Archive     ArchiveConfig   `yaml:"archive"`
	Log         LogConfig       `yaml:"log"`
	Environment string          `yaml:"environment"` // development, production
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type AuthConfig struct {
	JWTSecret  string `yaml:"jwt_secret"`
	CookieName string `yaml:"cookie_name"`
}

type BackendConfig struct {
	URL                  string `yaml:"url"`
	TimeoutSeconds       int    `yaml:"timeout_seconds"`        // default request class
	SlowTimeoutSeconds   int    `yaml:"slow_timeout_seconds"`   // dashboard aggregation class
	UploadTimeoutSeconds int    `yaml:"upload_timeout_seconds"` // multipart forwarding
	MaxAttempts          int    `yaml:"max_attempts"`           // retried request class
}

type RateLimitConfig struct {
	Requests      int `yaml:"requests"`
	WindowSeconds int `yaml:"window_seconds"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type ArchiveConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	UseSSL     bool   `yaml:"use_ssl"`
	ExpireDays int    `yaml:"expire_days"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Load reads the config file, applies environment overrides and defaults.
// A missing file is not an error; env vars alone are enough to run.
func Load(path string) (*Config, error) {
	// Optional .env for local development
	_ = godotenv.Load()

	var cfg Config
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.applyEnv()

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Environment == "" {
		cfg.Environment = "production"
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "auth_token"
	}
	if cfg.Backend.URL == "" {
		cfg.Backend.URL = "http://localhost:8000"
	}
	if cfg.Backend.TimeoutSeconds == 0 {
		cfg.Backend.TimeoutSeconds = 15
	}
	if cfg.Backend.SlowTimeoutSeconds == 0 {
		cfg.Backend.SlowTimeoutSeconds = 45
	}
	if cfg.Backend.UploadTimeoutSeconds == 0 {
		cfg.Backend.UploadTimeoutSeconds = 300
	}
	if cfg.Backend.MaxAttempts == 0 {
		cfg.Backend.MaxAttempts = 2
	}
	if cfg.RateLimit.Requests == 0 {
		cfg.RateLimit.Requests = 100
	}
	if cfg.RateLimit.WindowSeconds == 0 {
		cfg.RateLimit.WindowSeconds = 60
	}
	if cfg.Archive.ExpireDays == 0 {
		cfg.Archive.ExpireDays = 7
	}

	cfg.Backend.URL = ResolveBackendURL(cfg.Backend.URL, cfg.Environment)

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv("SUPABASE_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
}

// ResolveBackendURL returns the effective upstream base URL. In development
// a container-network hostname (a single label like "backend", or the
// Docker host alias) is rewritten to localhost so the gateway works both
// inside and outside the compose network. The port is preserved.
func ResolveBackendURL(raw, environment string) string {
	if environment != "development" {
		return strings.TrimSuffix(raw, "/")
	}

	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return strings.TrimSuffix(raw, "/")
	}

	host := u.Hostname()
	if host == "localhost" || host == "127.0.0.1" {
		return strings.TrimSuffix(raw, "/")
	}

	if !strings.Contains(host, ".") || host == "host.docker.internal" {
		if port := u.Port(); port != "" {
			u.Host = "localhost:" + port
		} else {
			u.Host = "localhost"
		}
		return strings.TrimSuffix(u.String(), "/")
	}

	return strings.TrimSuffix(raw, "/")
}
