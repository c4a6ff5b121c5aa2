// Command ingest-server receives SNS HTTP push notifications and runs them
// through the ingest pipeline.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tendant/simple-ingest/pkg/ingest/config"
	"github.com/tendant/simple-ingest/pkg/ingest/httpapi"
)

func main() {
	cfg, err := config.Load(config.WithEnv())
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}
	logger := cfg.Logger()
	slog.SetDefault(logger)

	pipeline, closeCatalog, err := cfg.BuildPipeline(context.Background(), logger)
	if err != nil {
		logger.Error("Failed to build pipeline", "err", err)
		os.Exit(1)
	}
	defer closeCatalog()

	options := []httpapi.Option{httpapi.WithLogger(logger)}
	if cfg.SNSAutoConfirm {
		options = append(options, httpapi.WithAutoConfirm(nil))
	}
	server := httpapi.NewServer(pipeline, options...)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		catalog, _, _ := cfg.Catalog()
		logger.Info("Ingest server starting", "port", cfg.Port, "catalog", catalog)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "err", err)
	}
	logger.Info("Server exiting")
}
