// Command update-table applies caption, date and photographer updates
// delivered by SNS to existing catalog entries.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/tendant/simple-ingest/pkg/ingest/awslambda"
	"github.com/tendant/simple-ingest/pkg/ingest/config"
)

func main() {
	cfg, err := config.Load(config.WithEnv())
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}
	logger := cfg.Logger()
	slog.SetDefault(logger)

	pipeline, _, err := cfg.BuildPipeline(context.Background(), logger)
	if err != nil {
		logger.Error("Failed to build pipeline", "err", err)
		os.Exit(1)
	}

	lambda.Start(awslambda.NewMetadataHandler(pipeline, logger).Handle)
}
