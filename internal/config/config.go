// Package config provides application configuration loaded from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Auth     AuthConfig
	Mail     MailConfig
	Kafka    KafkaConfig
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `env:"PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"billing"`
	Password string `env:"DB_PASSWORD" envDefault:"billing123"`
	DBName   string `env:"DB_NAME" envDefault:"billing"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	Debug    bool   `env:"DB_DEBUG" envDefault:"false"`
	// ConnectRetries is how many times Connect tries before giving up.
	ConnectRetries int `env:"DB_CONNECT_RETRIES" envDefault:"10"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev        bool `env:"DEV" envDefault:"true"`
	Migrations bool `env:"MIGRATIONS" envDefault:"false"`
	Seed       bool `env:"DB_SEED" envDefault:"false"`
}

// AuthConfig holds the secrets used to trust incoming identities.
type AuthConfig struct {
	SessionSecret string        `env:"SESSION_SECRET" envDefault:"devsessionsecret"`
	JWTSecret     string        `env:"JWT_SECRET"`
	TokenTTL      time.Duration `env:"JWT_TTL" envDefault:"24h"`
}

// TokenSecret is the key signing bearer tokens; it falls back to the
// session secret when JWT_SECRET is unset.
func (a AuthConfig) TokenSecret() string {
	if a.JWTSecret != "" {
		return a.JWTSecret
	}
	return a.SessionSecret
}

// MailConfig holds SMTP settings for outgoing notices.
// An empty Host disables mail delivery.
type MailConfig struct {
	Host        string `env:"SMTP_HOST"`
	Port        int    `env:"SMTP_PORT" envDefault:"587"`
	Username    string `env:"SMTP_USERNAME"`
	Password    string `env:"SMTP_PASSWORD"`
	FromAddress string `env:"MAIL_FROM" envDefault:"facturation@localhost"`
	SkipVerify  bool   `env:"SMTP_SKIP_VERIFY" envDefault:"false"`
	// PublicURL prefixes the document links placed in notices.
	PublicURL string `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`
}

// KafkaConfig holds lifecycle event publishing settings.
// No brokers means events are dropped.
type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_BILLING_TOPIC" envDefault:"billing.lifecycle"`
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// MailEnabled reports whether an SMTP host is configured.
func (c *Config) MailEnabled() bool {
	return c.Mail.Host != ""
}

// Load reads an optional .env file at envPath, then the environment.
// Defaults are tuned for local development.
func Load(envPath string) (*Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envPath, err)
		}
	}
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if !cfg.App.Dev && cfg.Auth.SessionSecret == "devsessionsecret" {
		return nil, errors.New("SESSION_SECRET must be set outside dev mode")
	}
	return &cfg, nil
}
