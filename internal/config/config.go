package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Database drivers.
const (
	DBDriverPostgres = "postgres"
	DBDriverMemory   = "memory"
)

// Notification drivers.
const (
	NotifyDriverNone     = "none"
	NotifyDriverSMTP     = "smtp"
	NotifyDriverSendGrid = "sendgrid"
)

// Config holds application configuration.
type Config struct {
	// Server
	ServerAddr      string
	ServerPort      int
	ShutdownTimeout time.Duration
	LogLevel        slog.Level

	// Database
	DBDriver       string
	DBHost         string
	DBPort         int
	DBUser         string
	DBPassword     string
	DBName         string
	DBSSLMode      string
	DBMaxOpenConns int
	DBAutoMigrate  bool

	// JWT
	JWTSecret      string
	JWTIssuer      string
	AccessTokenTTL time.Duration

	// Notifications
	NotifyDriver   string
	NotifyTimeout  time.Duration
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPassword   string
	SendGridAPIKey string
	MailFrom       string
	MailFromName   string
	AppBaseURL     string

	// HTTP hardening
	RateLimit           RateLimitConfig
	SecurityHeaders     SecurityHeadersConfig
	MaxRequestBodyBytes int64
}

// RateLimitConfig holds per-IP rate limits. Write limits apply to routes
// that change invitation or carpool state; read limits to everything else.
type RateLimitConfig struct {
	Enabled                bool
	WriteRequestsPerMinute int
	WriteWindowMinutes     int
	ReadRequestsPerMinute  int
	ReadWindowMinutes      int
}

// SecurityHeadersConfig holds response security header values. Empty
// values are not sent.
type SecurityHeadersConfig struct {
	Enabled            bool
	CSP                string
	HSTSMaxAge         int
	FrameOptions       string
	ContentTypeOptions string
	XSSProtection      string
	ReferrerPolicy     string
	PermissionsPolicy  string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		// Server defaults
		ServerAddr:      getEnv("SERVER_ADDR", "0.0.0.0"),
		ServerPort:      getEnvInt("SERVER_PORT", 8080),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		LogLevel:        getEnvLogLevel("LOG_LEVEL", slog.LevelInfo),

		// Database defaults
		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", DBDriverPostgres)),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnvInt("DB_PORT", 5432),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", "postgres"),
		DBName:         getEnv("DB_NAME", "wheelshare"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBAutoMigrate:  getEnvBool("DB_AUTO_MIGRATE", true),

		// JWT defaults
		JWTSecret:      getEnv("JWT_SECRET", ""),
		JWTIssuer:      getEnv("JWT_ISSUER", "wheelshare"),
		AccessTokenTTL: getEnvDuration("ACCESS_TOKEN_TTL", 24*time.Hour),

		// Notifications (optional)
		NotifyDriver:   strings.ToLower(getEnv("NOTIFY_DRIVER", NotifyDriverNone)),
		NotifyTimeout:  getEnvDuration("NOTIFY_TIMEOUT", 10*time.Second),
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getEnvInt("SMTP_PORT", 587),
		SMTPUser:       getEnv("SMTP_USER", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		MailFrom:       getEnv("MAIL_FROM", "noreply@wheelshare.app"),
		MailFromName:   getEnv("MAIL_FROM_NAME", "WheelShare"),
		AppBaseURL:     strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:3000"), "/"),

		RateLimit: RateLimitConfig{
			Enabled:                getEnvBool("RATE_LIMIT_ENABLED", true),
			WriteRequestsPerMinute: getEnvInt("RATE_LIMIT_WRITE_REQUESTS", 30),
			WriteWindowMinutes:     getEnvInt("RATE_LIMIT_WRITE_WINDOW_MINUTES", 1),
			ReadRequestsPerMinute:  getEnvInt("RATE_LIMIT_READ_REQUESTS", 120),
			ReadWindowMinutes:      getEnvInt("RATE_LIMIT_READ_WINDOW_MINUTES", 1),
		},

		SecurityHeaders: SecurityHeadersConfig{
			Enabled:            getEnvBool("SECURITY_HEADERS_ENABLED", true),
			CSP:                getEnv("SECURITY_CSP", "default-src 'none'; frame-ancestors 'none'"),
			HSTSMaxAge:         getEnvInt("SECURITY_HSTS_MAX_AGE", 31536000),
			FrameOptions:       getEnv("SECURITY_FRAME_OPTIONS", "DENY"),
			ContentTypeOptions: getEnv("SECURITY_CONTENT_TYPE_OPTIONS", "nosniff"),
			XSSProtection:      getEnv("SECURITY_XSS_PROTECTION", "0"),
			ReferrerPolicy:     getEnv("SECURITY_REFERRER_POLICY", "no-referrer"),
			PermissionsPolicy:  getEnv("SECURITY_PERMISSIONS_POLICY", ""),
		},

		MaxRequestBodyBytes: int64(getEnvInt("MAX_REQUEST_BODY_BYTES", 64*1024)),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	switch c.DBDriver {
	case DBDriverPostgres, DBDriverMemory:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DBDriverPostgres, DBDriverMemory, c.DBDriver)
	}

	switch c.NotifyDriver {
	case NotifyDriverNone:
	case NotifyDriverSMTP:
		if c.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required when NOTIFY_DRIVER=smtp")
		}
	case NotifyDriverSendGrid:
		if c.SendGridAPIKey == "" {
			return fmt.Errorf("SENDGRID_API_KEY is required when NOTIFY_DRIVER=sendgrid")
		}
	default:
		return fmt.Errorf("NOTIFY_DRIVER must be one of none, smtp, sendgrid, got %q", c.NotifyDriver)
	}

	if c.MaxRequestBodyBytes <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_BYTES must be positive")
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.ServerAddr, c.ServerPort)
}

// HasNotifications returns true if a notification sender is configured.
func (c *Config) HasNotifications() bool {
	return c.NotifyDriver != NotifyDriverNone
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvLogLevel(key string, defaultValue slog.Level) slog.Level {
	if value := os.Getenv(key); value != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(value)); err == nil {
			return level
		}
	}
	return defaultValue
}
