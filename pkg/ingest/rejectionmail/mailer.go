// Package rejectionmail consumes rejection records and sends one
// human-readable notice per rejected upload.
package rejectionmail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tendant/simple-ingest/pkg/ingest"
)

const (
	Subject         = "File Upload Rejection"
	DefaultReason   = "Invalid file type."
	DefaultFileName = "unknown file"
)

// Notice is a rendered rejection message.
type Notice struct {
	Subject string
	Body    string
}

// Parse extracts a rejection record from msg. The JSON body wins; attributes
// embedded in the body under MessageAttributes come next, then the message's
// own attributes. Parse never fails: an unreadable message
// yields an empty record that Render fills with defaults.
func Parse(msg ingest.Message) ingest.RejectionRecord {
	inner, err := ingest.Unwrap(msg)
	if err != nil {
		inner = msg
	}

	var rec ingest.RejectionRecord
	var embedded struct {
		MessageAttributes map[string]interface{} `json:"MessageAttributes"`
	}
	if body := strings.TrimSpace(inner.Body); strings.HasPrefix(body, "{") {
		_ = json.Unmarshal([]byte(body), &rec)
		_ = json.Unmarshal([]byte(body), &embedded)
	}
	attrs := ingest.SNSAttributes(embedded.MessageAttributes)
	if rec.Key == "" {
		rec.Key = firstNonEmpty(attrs[ingest.AttrFileName], inner.Attribute(ingest.AttrFileName))
	}
	if rec.Reason == "" {
		rec.Reason = firstNonEmpty(attrs[ingest.AttrErrorMessage], inner.Attribute(ingest.AttrErrorMessage))
	}
	return rec
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Render builds the notice for rec, substituting defaults for missing fields.
func Render(rec ingest.RejectionRecord) Notice {
	name := rec.Key
	if name == "" {
		name = DefaultFileName
	}
	reason := rec.Reason
	if reason == "" {
		reason = DefaultReason
	}
	return Notice{
		Subject: Subject,
		Body:    fmt.Sprintf("The upload of file %q was rejected. Reason: %s", name, reason),
	}
}

// Mailer sends a notice for every rejection message it receives.
type Mailer struct {
	sender   ingest.Sender
	to       string
	logger   *slog.Logger
	isolator *ingest.Isolator
}

// New creates a mailer delivering notices to recipient through sender.
func New(sender ingest.Sender, recipient string, logger *slog.Logger) (*Mailer, error) {
	if sender == nil {
		return nil, errors.New("sender is required")
	}
	if recipient == "" {
		return nil, errors.New("recipient is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{sender: sender, to: recipient, logger: logger, isolator: ingest.NewIsolator(logger)}, nil
}

// HandleMessage renders and sends the notice for one message. A send failure
// is logged and returned as a *ingest.NotifyError; it is never retried.
func (m *Mailer) HandleMessage(ctx context.Context, msg ingest.Message) error {
	rec := Parse(msg)
	notice := Render(rec)
	if err := m.sender.Send(ctx, m.to, notice.Subject, notice.Body); err != nil {
		m.logger.Error("Failed to send rejection email", "key", rec.Key, "err", err)
		return &ingest.NotifyError{Key: rec.Key, Channel: "email", Err: err}
	}
	m.logger.Info("Rejection email sent", "key", rec.Key)
	return nil
}

// HandleBatch sends a notice for each message of a batch.
func (m *Mailer) HandleBatch(ctx context.Context, msgs []ingest.Message) *ingest.BatchResult {
	return m.isolator.Run(ctx, msgs, m.HandleMessage)
}
