package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const devJWTSecret = "dev-only-secret-change-me-0123456789abcdef"

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	Reset       ResetConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Email       EmailConfig
	Logging     LoggingConfig
	Tracing     TracingConfig
	Environment string
}

type ServerConfig struct {
	Host    string
	Port    int
	BaseURL string
}

// DatabaseConfig selects the storage backend by URL scheme:
// postgres:// and postgresql:// use PostgreSQL, anything else is a SQLite path or file: URI.
type DatabaseConfig struct {
	URL            string
	MaxConnections int
}

type AuthConfig struct {
	JWTSecret  string
	JWTIssuer  string
	JWTExpiry  time.Duration
	BcryptCost int
}

// ResetConfig controls the password reset flow.
type ResetConfig struct {
	BaseURL  string
	TokenTTL time.Duration
}

type RateLimitConfig struct {
	PublicPerMinute        int
	AuthenticatedPerMinute int
	LoginPer15Minutes      int
	TrustedProxyCIDRs      []string
}

type CORSConfig struct {
	AllowAllOrigins bool
	AllowedOrigins  []string
}

type EmailConfig struct {
	Enabled      bool
	From         string
	ResendAPIKey string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type TracingConfig struct {
	Enabled      bool
	Exporter     string
	ServiceName  string
	OTLPEndpoint string
	SampleRate   float64
}

// fileConfig mirrors the optional YAML config file. Environment variables win over it.
type fileConfig struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"server"`
	Database struct {
		URL            string `yaml:"url"`
		MaxConnections int    `yaml:"max_connections"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret      string `yaml:"jwt_secret"`
		JWTIssuer      string `yaml:"jwt_issuer"`
		JWTExpiryHours int    `yaml:"jwt_expiry_hours"`
		BcryptCost     int    `yaml:"bcrypt_cost"`
	} `yaml:"auth"`
	Reset struct {
		BaseURL         string `yaml:"base_url"`
		TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
	} `yaml:"reset"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	Email struct {
		Enabled      bool   `yaml:"enabled"`
		From         string `yaml:"from"`
		ResendAPIKey string `yaml:"resend_api_key"`
	} `yaml:"email"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory when one exists.
func Load() (Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an optional YAML file supplying defaults.
// An empty path falls back to CONFIG_FILE.
func LoadFile(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	var file fileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	env := getEnv("ENVIRONMENT", or(file.Environment, "development"))
	port := getEnvInt("SERVER_PORT", orInt(file.Server.Port, 8091))

	cfg := Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", or(file.Server.Host, "0.0.0.0")),
			Port:    port,
			BaseURL: getEnv("SERVER_BASE_URL", or(file.Server.BaseURL, fmt.Sprintf("http://localhost:%d", port))),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", or(file.Database.URL, "file:events.sqlite")),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", orInt(file.Database.MaxConnections, 10)),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", file.Auth.JWTSecret),
			JWTIssuer:  getEnv("JWT_ISSUER", or(file.Auth.JWTIssuer, "simple-event-calendar")),
			JWTExpiry:  time.Duration(getEnvInt("JWT_EXPIRY_HOURS", orInt(file.Auth.JWTExpiryHours, 2))) * time.Hour,
			BcryptCost: getEnvInt("BCRYPT_COST", orInt(file.Auth.BcryptCost, 12)),
		},
		Reset: ResetConfig{
			BaseURL:  getEnv("RESET_BASE_URL", or(file.Reset.BaseURL, "http://localhost:5173")),
			TokenTTL: time.Duration(getEnvInt("RESET_TOKEN_TTL_MINUTES", orInt(file.Reset.TokenTTLMinutes, 60))) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute:        getEnvInt("RATE_LIMIT_PUBLIC", 60),
			AuthenticatedPerMinute: getEnvInt("RATE_LIMIT_AUTHENTICATED", 300),
			LoginPer15Minutes:      getEnvInt("RATE_LIMIT_LOGIN", 5),
			TrustedProxyCIDRs:      splitList(os.Getenv("TRUSTED_PROXY_CIDRS")),
		},
		Email: EmailConfig{
			Enabled:      getEnvBool("EMAIL_ENABLED", file.Email.Enabled),
			From:         getEnv("EMAIL_FROM", or(file.Email.From, "Simple Event Calendar <no-reply@localhost>")),
			ResendAPIKey: getEnv("RESEND_API_KEY", file.Email.ResendAPIKey),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", or(file.Logging.Level, "info")),
			Format: getEnv("LOG_FORMAT", or(file.Logging.Format, "json")),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvBool("TRACING_ENABLED", false),
			Exporter:     getEnv("TRACING_EXPORTER", "stdout"),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "simple-event-calendar"),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRate:   getEnvFloat("TRACING_SAMPLE_RATE", 1.0),
		},
		Environment: env,
	}

	origins := splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if len(origins) == 0 {
		origins = file.CORS.AllowedOrigins
	}
	cfg.CORS = CORSConfig{AllowedOrigins: origins}
	if env == "development" || env == "test" {
		cfg.CORS.AllowAllOrigins = len(origins) == 0
		if cfg.Auth.JWTSecret == "" {
			cfg.Auth.JWTSecret = devJWTSecret
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first missing or inconsistent setting.
func (c Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Environment == "production" {
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
		if len(c.CORS.AllowedOrigins) == 0 {
			return fmt.Errorf("CORS_ALLOWED_ORIGINS is required in production")
		}
		if c.Email.Enabled && c.Email.ResendAPIKey == "" {
			return fmt.Errorf("RESEND_API_KEY is required when EMAIL_ENABLED is true")
		}
	}
	if c.Auth.JWTExpiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY_HOURS must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func or(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func orInt(value, fallback int) int {
	if value != 0 {
		return value
	}
	return fallback
}
