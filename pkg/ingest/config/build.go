package config

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-ingest/internal/awsconfig"
	"github.com/tendant/simple-ingest/pkg/ingest"
	"github.com/tendant/simple-ingest/pkg/ingest/catalog/dynamodb"
	"github.com/tendant/simple-ingest/pkg/ingest/catalog/memory"
	"github.com/tendant/simple-ingest/pkg/ingest/catalog/postgres"
	channelmemory "github.com/tendant/simple-ingest/pkg/ingest/channel/memory"
	"github.com/tendant/simple-ingest/pkg/ingest/channel/sqs"
	"github.com/tendant/simple-ingest/pkg/ingest/mailer/logsender"
	"github.com/tendant/simple-ingest/pkg/ingest/mailer/ses"
	"github.com/tendant/simple-ingest/pkg/ingest/rejectionmail"
)

func (c *Config) awsConfig(ctx context.Context) (aws.Config, error) {
	return awsconfig.Load(ctx, awsconfig.Config{
		Region:          c.AWS.Region,
		AccessKeyID:     c.AWS.AccessKeyID,
		SecretAccessKey: c.AWS.SecretAccessKey,
		Endpoint:        c.AWS.Endpoint,
	})
}

// BuildCatalog creates the configured catalog. The returned close function
// releases its connections and is never nil.
func (c *Config) BuildCatalog(ctx context.Context) (ingest.Catalog, func(), error) {
	noop := func() {}

	kind, target, err := c.Catalog()
	if err != nil {
		return nil, noop, err
	}

	switch kind {
	case CatalogMemory:
		return memory.New(), noop, nil

	case CatalogPostgres:
		cfg, err := pgxpool.ParseConfig(target)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to parse CATALOG_URL: %w", err)
		}
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		catalog := postgres.NewWithPool(pool)
		if c.CatalogEnsureSchema {
			if err := catalog.EnsureSchema(ctx); err != nil {
				pool.Close()
				return nil, noop, err
			}
		}
		return catalog, pool.Close, nil

	case CatalogDynamoDB:
		awsCfg, err := c.awsConfig(ctx)
		if err != nil {
			return nil, noop, err
		}
		catalog, err := dynamodb.NewFromConfig(awsCfg, target, c.AWS.Endpoint)
		if err != nil {
			return nil, noop, err
		}
		return catalog, noop, nil

	default:
		return nil, noop, fmt.Errorf("unsupported catalog type: %s", kind)
	}
}

// BuildPublisher creates the rejection channel: SQS when a queue URL is
// configured, an in-memory recorder otherwise. The in-memory recorder only
// suits local runs and tests; see RequireRejectionQueue.
func (c *Config) BuildPublisher(ctx context.Context) (ingest.RejectionPublisher, error) {
	if c.RejectionQueueURL == "" {
		return channelmemory.New(), nil
	}
	awsCfg, err := c.awsConfig(ctx)
	if err != nil {
		return nil, err
	}
	return sqs.NewFromConfig(awsCfg, c.RejectionQueueURL, c.AWS.Endpoint)
}

// BuildSender creates the notice sender: SES when email is configured, a log
// sender otherwise.
func (c *Config) BuildSender(ctx context.Context, logger *slog.Logger) (ingest.Sender, error) {
	if !c.EmailEnabled() {
		return logsender.New(logger), nil
	}
	awsCfg, err := c.awsConfig(ctx)
	if err != nil {
		return nil, err
	}
	return ses.NewFromConfig(awsCfg, c.EmailFrom, c.AWS.Endpoint)
}

// BuildPipeline creates the pipeline over the configured catalog and
// rejection channel.
func (c *Config) BuildPipeline(ctx context.Context, logger *slog.Logger) (*ingest.Pipeline, func(), error) {
	catalog, closeCatalog, err := c.BuildCatalog(ctx)
	if err != nil {
		return nil, closeCatalog, fmt.Errorf("failed to build catalog: %w", err)
	}
	publisher, err := c.BuildPublisher(ctx)
	if err != nil {
		closeCatalog()
		return nil, func() {}, fmt.Errorf("failed to build rejection publisher: %w", err)
	}
	pipeline, err := ingest.New(
		ingest.WithCatalog(catalog),
		ingest.WithRejectionPublisher(publisher),
		ingest.WithLogger(logger),
	)
	if err != nil {
		closeCatalog()
		return nil, func() {}, err
	}
	return pipeline, closeCatalog, nil
}

// BuildMailer creates the rejection mailer.
func (c *Config) BuildMailer(ctx context.Context, logger *slog.Logger) (*rejectionmail.Mailer, error) {
	sender, err := c.BuildSender(ctx, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build sender: %w", err)
	}
	to := c.EmailTo
	if to == "" {
		to = "rejections@localhost"
	}
	return rejectionmail.New(sender, to, logger)
}
