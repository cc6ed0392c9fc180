package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Port                             string `mapstructure:"PORT"`
	GinMode                          string `mapstructure:"GIN_MODE"`
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	FirebaseWebAPIKey                string `mapstructure:"FIREBASE_WEB_API_KEY"`
	EncryptionKey                    string `mapstructure:"ENCRYPTION_KEY"` // Base64 encoded, 32 bytes
	ClientURL                        string `mapstructure:"CLIENT_URL"`

	RedisURL            string        `mapstructure:"REDIS_URL"` // empty: in-process session store
	SessionCookieName   string        `mapstructure:"SESSION_COOKIE_NAME"`
	SessionCookieSecure bool          `mapstructure:"SESSION_COOKIE_SECURE"`
	SessionTTL          time.Duration `mapstructure:"SESSION_TTL"`
	SessionIdleTimeout  time.Duration `mapstructure:"SESSION_IDLE_TIMEOUT"`
	SessionAwaitTimeout time.Duration `mapstructure:"SESSION_AWAIT_TIMEOUT"`
	RoleWriteAttempts   int           `mapstructure:"ROLE_WRITE_ATTEMPTS"`

	RabbitMQURL      string `mapstructure:"RABBITMQ_URL"` // empty: in-process queue
	TourRequestQueue string `mapstructure:"TOUR_REQUEST_QUEUE"`

	ResendAPIKey string `mapstructure:"RESEND_API_KEY"`
	MailFrom     string `mapstructure:"MAIL_FROM"`
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPass     string `mapstructure:"SMTP_PASS"`
}

var keys = []string{
	"PORT", "GIN_MODE",
	"FIREBASE_PROJECT_ID", "GOOGLE_APPLICATION_CREDENTIALS", "FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"FIREBASE_WEB_API_KEY", "ENCRYPTION_KEY", "CLIENT_URL",
	"REDIS_URL", "SESSION_COOKIE_NAME", "SESSION_COOKIE_SECURE", "SESSION_TTL",
	"SESSION_IDLE_TIMEOUT", "SESSION_AWAIT_TIMEOUT", "ROLE_WRITE_ATTEMPTS",
	"RABBITMQ_URL", "TOUR_REQUEST_QUEUE",
	"RESEND_API_KEY", "MAIL_FROM", "SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS",
}

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SESSION_COOKIE_NAME", "gymdesk_session")
	v.SetDefault("SESSION_COOKIE_SECURE", false)
	v.SetDefault("SESSION_TTL", "336h")
	v.SetDefault("SESSION_IDLE_TIMEOUT", "30m")
	v.SetDefault("SESSION_AWAIT_TIMEOUT", "5s")
	v.SetDefault("ROLE_WRITE_ATTEMPTS", 3)
	v.SetDefault("TOUR_REQUEST_QUEUE", "tour_requests")
	v.SetDefault("MAIL_FROM", "GymDesk <no-reply@gymdesk.app>")
	v.SetDefault("SMTP_PORT", 587)

	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, errors.New("failed to bind " + k + ": " + err.Error())
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.FirebaseProjectID == "" {
		return errors.New("FIREBASE_PROJECT_ID is required")
	}
	if c.GoogleApplicationCredentials == "" && c.FirebaseServiceAccountJSONBase64 == "" {
		return errors.New("either GOOGLE_APPLICATION_CREDENTIALS or FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 is required")
	}
	if c.FirebaseWebAPIKey == "" {
		return errors.New("FIREBASE_WEB_API_KEY is required")
	}
	if c.EncryptionKey == "" {
		return errors.New("ENCRYPTION_KEY is required")
	}
	if c.ClientURL == "" {
		return errors.New("CLIENT_URL is required")
	}
	if c.RoleWriteAttempts < 1 {
		return errors.New("ROLE_WRITE_ATTEMPTS must be at least 1")
	}
	if c.SessionTTL <= 0 || c.SessionAwaitTimeout <= 0 {
		return errors.New("SESSION_TTL and SESSION_AWAIT_TIMEOUT must be positive")
	}
	return nil
}

// IsRelease reports whether gin runs in release mode.
func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}
