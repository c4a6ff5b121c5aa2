package ingest

import (
	"context"
	"log/slog"
)

// Notifier publishes RejectionRecords for files that failed validation.
type Notifier struct {
	publisher RejectionPublisher
	logger    *slog.Logger
}

// NewNotifier creates a notifier over publisher.
func NewNotifier(publisher RejectionPublisher, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{publisher: publisher, logger: logger}
}

// Reject publishes a rejection record for key. A publish failure is logged and
// returned as a *NotifyError; callers on the change path drop it.
func (n *Notifier) Reject(ctx context.Context, key, reason string) error {
	record := RejectionRecord{Key: key, Reason: reason}
	if err := n.publisher.Publish(ctx, record); err != nil {
		n.logger.Error("Failed to publish rejection", "key", key, "err", err)
		return &NotifyError{Key: key, Channel: "rejection", Err: err}
	}
	n.logger.Info("Rejection published", "key", key)
	return nil
}
