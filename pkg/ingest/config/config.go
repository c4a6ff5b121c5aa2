// Package config assembles the ingest pipeline and its adapters from
// defaults, options and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
)

// Catalog backend types
const (
	CatalogMemory   = "memory"
	CatalogPostgres = "postgres"
	CatalogDynamoDB = "dynamodb"
)

// Option applies configuration to a Config instance.
type Option func(*Config) error

// Config holds everything needed to build the pipeline, the mailer and the
// HTTP server.
type Config struct {
	Port      string `env:"PORT" env-default:"8080"`
	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `env:"LOG_FORMAT" env-default:"json"` // json or text

	// CatalogURL selects the catalog: "memory", "postgres://..." or
	// "dynamodb://<table>".
	CatalogURL          string `env:"CATALOG_URL" env-default:"memory"`
	CatalogEnsureSchema bool   `env:"CATALOG_ENSURE_SCHEMA" env-default:"false"`

	// RejectionQueueURL is the SQS queue receiving rejection records. Empty
	// keeps them in memory.
	RejectionQueueURL string `env:"REJECTION_QUEUE_URL"`

	// RejectionQueueRequired makes Validate fail without a queue URL.
	RejectionQueueRequired bool

	// EmailFrom and EmailTo enable SES delivery of rejection notices. When
	// both are empty, notices are logged.
	EmailFrom string `env:"SES_EMAIL_FROM"`
	EmailTo   string `env:"SES_EMAIL_TO"`

	// SNSAutoConfirm makes the HTTP server confirm topic subscriptions.
	SNSAutoConfirm bool `env:"SNS_AUTO_CONFIRM" env-default:"false"`

	AWS AWSConfig
}

// AWSConfig is shared by every AWS client.
type AWSConfig struct {
	Region          string `env:"AWS_REGION" env-default:"us-east-1"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	Endpoint        string `env:"AWS_ENDPOINT_URL"`
}

// Load constructs a Config by applying the supplied options on top of
// defaults.
func Load(opts ...Option) (*Config, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() Config {
	return Config{
		Port:       "8080",
		LogLevel:   "info",
		LogFormat:  "json",
		CatalogURL: CatalogMemory,
		AWS:        AWSConfig{Region: "us-east-1"},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("log format must be 'json' or 'text', got: %s", c.LogFormat)
	}
	if _, _, err := c.Catalog(); err != nil {
		return err
	}
	if c.RejectionQueueRequired && strings.TrimSpace(c.RejectionQueueURL) == "" {
		return errors.New("REJECTION_QUEUE_URL is required")
	}
	if (c.EmailFrom == "") != (c.EmailTo == "") {
		return errors.New("SES_EMAIL_FROM and SES_EMAIL_TO must be set together")
	}
	return nil
}

// Catalog returns the catalog backend type and its target: the connection
// string for postgres or the table name for dynamodb.
func (c *Config) Catalog() (string, string, error) {
	raw := strings.TrimSpace(c.CatalogURL)
	if raw == "" || raw == CatalogMemory || raw == "memory://" {
		return CatalogMemory, "", nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid CATALOG_URL: %w", err)
	}
	switch u.Scheme {
	case "postgres", "postgresql":
		return CatalogPostgres, raw, nil
	case "dynamodb":
		table := u.Host + strings.TrimSuffix(u.Path, "/")
		if table == "" {
			return "", "", errors.New("dynamodb table name cannot be empty in CATALOG_URL")
		}
		return CatalogDynamoDB, table, nil
	default:
		return "", "", fmt.Errorf("unsupported CATALOG_URL format: %s (use 'memory', 'postgres://...' or 'dynamodb://<table>')", raw)
	}
}

// EmailEnabled reports whether rejection notices go out through SES.
func (c *Config) EmailEnabled() bool {
	return c.EmailFrom != "" && c.EmailTo != ""
}

// Logger returns a logger writing to stderr in the configured format and level.
func (c *Config) Logger() *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}
