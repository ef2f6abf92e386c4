// Package config centralizes environment-driven configuration so main stays
// lean. Values are read once at startup; defaults are chosen for local
// development and must be overridden in production.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Config captures process-level configuration.
type Config struct {
	Addr     string
	Env      string
	LogLevel string

	JWTSecret    string
	JWTExpiresIn time.Duration

	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
	RedisURL      string
	KafkaBrokers  []string

	S3   S3Config
	SMTP SMTPConfig
	CMS  CMSConfig
}

// S3Config points at an S3-compatible object store (AWS or MinIO).
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// SMTPConfig configures the outbound mailer.
type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// CMSConfig points at an external headless CMS.
type CMSConfig struct {
	URL   string
	Token string
}

// Production reports whether production-mode detail suppression applies.
func (c Config) Production() bool {
	return c.Env == "production"
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	expiresIn := 24 * time.Hour
	if raw := os.Getenv("JWT_EXPIRES_IN"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			expiresIn = parsed
		}
	}

	return Config{
		Addr:          ":" + envOr("PORT", "3000"),
		Env:           envOr("APP_ENV", "development"),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		JWTSecret:     envOr("JWT_SECRET", "dev-secret-change-in-production"),
		JWTExpiresIn:  expiresIn,
		DatabaseURL:   databaseURL(),
		MongoURI:      envOr("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: envOr("MONGO_DATABASE", "app"),
		RedisURL:      envOr("REDIS_URL", "redis://localhost:6379"),
		KafkaBrokers:  splitList(envOr("KAFKA_BROKERS", "localhost:9092")),
		S3: S3Config{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			Region:    envOr("S3_REGION", "us-east-1"),
			Bucket:    envOr("S3_BUCKET", "uploads"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
		},
		SMTP: SMTPConfig{
			Host: os.Getenv("SMTP_HOST"),
			Port: envOr("SMTP_PORT", "587"),
			User: os.Getenv("SMTP_USER"),
			Pass: os.Getenv("SMTP_PASS"),
			From: envOr("EMAIL_FROM", "no-reply@localhost"),
		},
		CMS: CMSConfig{
			URL:   os.Getenv("CMS_URL"),
			Token: os.Getenv("CMS_TOKEN"),
		},
	}
}

// databaseURL prefers a single DATABASE_URL and otherwise assembles a
// connection string from the individual DB_* variables.
func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		envOr("DB_USER", "postgres"),
		envOr("DB_PASSWORD", "postgres"),
		envOr("DB_HOST", "localhost"),
		envOr("DB_PORT", "5432"),
		envOr("DB_NAME", "app"),
		envOr("DB_SSLMODE", "disable"),
	)
}

func envOr(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
