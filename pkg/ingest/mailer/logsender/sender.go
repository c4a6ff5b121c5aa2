// Package logsender writes notices to a slog.Logger instead of sending them.
package logsender

import (
	"context"
	"log/slog"
)

// Sender implements ingest.Sender by logging each notice.
type Sender struct {
	logger *slog.Logger
}

// New creates a log sender. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{logger: logger}
}

func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	s.logger.InfoContext(ctx, "Notice", "to", to, "subject", subject, "body", body)
	return nil
}
