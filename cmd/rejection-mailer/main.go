// Command rejection-mailer emails a notice for every rejected upload.
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

	mailer, err := cfg.BuildMailer(context.Background(), logger)
	if err != nil {
		logger.Error("Failed to build mailer", "err", err)
		os.Exit(1)
	}

	lambda.Start(awslambda.NewRejectionMailHandler(mailer, logger).Handle)
}
