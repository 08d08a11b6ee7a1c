package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPHost string
	HTTPPort string

	MySQLDSN string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	EmailTokenTTL   time.Duration

	// BaseURL is the externally visible address embedded in confirmation
	// links sent by mail.
	BaseURL string

	LogLevel  string
	LogFormat string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	Mail MailConfig
}

type MailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Enabled reports whether outbound mail is configured at all. When it is
// not, confirmation mails are logged instead of sent.
func (m MailConfig) Enabled() bool {
	return m.Host != ""
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignores error if not found)
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	cfg := &Config{
		HTTPHost:          getEnv("HTTP_HOST", ""),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		MySQLDSN:          mysqlDSN,
		JWTSecret:         jwtSecret,
		AccessTokenTTL:    getDurationEnv("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:   getDurationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		EmailTokenTTL:     getDurationEnv("EMAIL_TOKEN_TTL", 24*time.Hour),
		BaseURL:           getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 5),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", 30*time.Second),
		Mail: MailConfig{
			Host:     getEnv("MAIL_HOST", ""),
			Port:     getEnv("MAIL_PORT", "465"),
			Username: getEnv("MAIL_USERNAME", ""),
			Password: getEnv("MAIL_PASSWORD", ""),
			From:     getEnv("MAIL_FROM", ""),
		},
	}

	if cfg.AccessTokenTTL >= cfg.RefreshTokenTTL {
		return nil, errors.New("ACCESS_TOKEN_TTL must be shorter than REFRESH_TOKEN_TTL")
	}

	// a zero window would turn the limiter rate into +Inf and disable it
	if cfg.RateLimitWindow <= 0 {
		return nil, errors.New("RATE_LIMIT_WINDOW must be positive")
	}
	if cfg.RateLimitRequests <= 0 {
		return nil, errors.New("RATE_LIMIT_REQUESTS must be positive")
	}

	return cfg, nil
}

func (c *Config) DSN() string {
	return c.MySQLDSN
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
