// Command process-image consumes object-change notifications from SQS,
// records accepted uploads in the catalog and publishes rejections.
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
	cfg, err := config.Load(config.WithEnv(), config.RequireRejectionQueue())
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

	lambda.Start(awslambda.NewChangeHandler(pipeline, logger).Handle)
}
