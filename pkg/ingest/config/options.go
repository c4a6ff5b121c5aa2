package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// WithEnv reads every field from its environment variable, falling back to
// the env-default tag. Apply it before other options so they can override it.
func WithEnv() Option {
	return func(c *Config) error {
		if err := cleanenv.ReadEnv(c); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		return nil
	}
}

// WithPort sets the HTTP server port
func WithPort(port string) Option {
	return func(c *Config) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithCatalogURL selects the catalog backend
func WithCatalogURL(catalogURL string) Option {
	return func(c *Config) error {
		c.CatalogURL = catalogURL
		return nil
	}
}

// WithRejectionQueue sets the SQS queue for rejection records
func WithRejectionQueue(queueURL string) Option {
	return func(c *Config) error {
		c.RejectionQueueURL = queueURL
		return nil
	}
}

// RequireRejectionQueue rejects configurations that would keep rejection
// records in memory. Deployed consumers use it so rejections reach the mailer.
func RequireRejectionQueue() Option {
	return func(c *Config) error {
		c.RejectionQueueRequired = true
		return nil
	}
}

// WithEmail sets the SES source and recipient addresses
func WithEmail(from, to string) Option {
	return func(c *Config) error {
		c.EmailFrom = from
		c.EmailTo = to
		return nil
	}
}

// WithLogLevel sets the log level (debug, info, warn, error)
func WithLogLevel(level string) Option {
	return func(c *Config) error {
		c.LogLevel = level
		return nil
	}
}
