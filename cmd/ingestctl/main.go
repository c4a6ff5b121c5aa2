package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/spf13/cobra"
	"github.com/tendant/simple-ingest/internal/awsconfig"
	"github.com/tendant/simple-ingest/pkg/ingest/config"
	"github.com/tendant/simple-ingest/pkg/ingest/objectstore/s3"
)

var (
	version = "dev"
	commit  = "none"
)

// bucketEnv names the uploads bucket used by put, delete and replay.
type bucketEnv struct {
	Bucket       string `env:"INGEST_BUCKET"`
	UsePathStyle bool   `env:"AWS_S3_USE_PATH_STYLE" env-default:"false"`
}

func main() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "ingestctl",
		Short: "Drive and inspect the upload ingestion pipeline",
		Long: `ingestctl uploads and removes objects in the uploads bucket, replays
change notifications through a locally built pipeline and inspects catalog
entries.

Configuration is read from the same environment variables as the services
(CATALOG_URL, REJECTION_QUEUE_URL, AWS_*) plus INGEST_BUCKET.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("bucket", "", "uploads bucket (default: $INGEST_BUCKET)")

	rootCmd.AddCommand(NewPutCommand())
	rootCmd.AddCommand(NewDeleteCommand())
	rootCmd.AddCommand(NewReplayCommand())
	rootCmd.AddCommand(NewGetCommand())

	return rootCmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	opts := []config.Option{config.WithEnv()}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		opts = append(opts, config.WithLogLevel("debug"))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, nil, err
	}
	cfg.LogFormat = "text"
	return cfg, cfg.Logger(), nil
}

func newStore(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (*s3.Store, error) {
	var env bucketEnv
	if err := cleanenv.ReadEnv(&env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if bucket, _ := cmd.Flags().GetString("bucket"); bucket != "" {
		env.Bucket = bucket
	}

	awsCfg, err := awsconfig.Load(ctx, awsconfig.Config{
		Region:          cfg.AWS.Region,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
	})
	if err != nil {
		return nil, err
	}
	return s3.New(awsCfg, s3.Config{
		Bucket:       env.Bucket,
		Endpoint:     cfg.AWS.Endpoint,
		UsePathStyle: env.UsePathStyle,
	})
}
