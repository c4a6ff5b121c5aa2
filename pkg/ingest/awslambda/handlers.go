// Package awslambda adapts the ingest pipeline to Lambda event sources.
package awslambda

import (
	"context"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/tendant/simple-ingest/pkg/ingest"
	"github.com/tendant/simple-ingest/pkg/ingest/rejectionmail"
)

// FromSQS converts SQS records into pipeline messages, keeping string
// attributes only.
func FromSQS(records []events.SQSMessage) []ingest.Message {
	msgs := make([]ingest.Message, len(records))
	for i, r := range records {
		attrs := make(map[string]string, len(r.MessageAttributes))
		for name, attr := range r.MessageAttributes {
			if attr.StringValue != nil {
				attrs[name] = *attr.StringValue
			}
		}
		msgs[i] = ingest.Message{ID: r.MessageId, Body: r.Body, Attributes: attrs}
	}
	return msgs
}

// FromSNS converts SNS records into pipeline messages. The record's message
// is the body; the envelope has already been removed by Lambda.
func FromSNS(records []events.SNSEventRecord) []ingest.Message {
	msgs := make([]ingest.Message, len(records))
	for i, r := range records {
		msgs[i] = ingest.Message{
			ID:         r.SNS.MessageID,
			Body:       r.SNS.Message,
			Attributes: ingest.SNSAttributes(r.SNS.MessageAttributes),
		}
	}
	return msgs
}

func batchResponse(ids []string) events.SQSEventResponse {
	resp := events.SQSEventResponse{BatchItemFailures: []events.SQSBatchItemFailure{}}
	for _, id := range ids {
		resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: id})
	}
	return resp
}

// ChangeHandler processes object-change notifications delivered through SQS.
// Records with a retryable failure are reported as batch item failures so
// that only they are redelivered.
type ChangeHandler struct {
	pipeline *ingest.Pipeline
	logger   *slog.Logger
}

func NewChangeHandler(pipeline *ingest.Pipeline, logger *slog.Logger) *ChangeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChangeHandler{pipeline: pipeline, logger: logger}
}

func (h *ChangeHandler) Handle(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	result := h.pipeline.HandleChanges(ctx, FromSQS(event.Records))
	retry := result.RetryableIDs()
	h.logger.Info("Change batch processed",
		"total", result.Total, "succeeded", result.Succeeded,
		"failed", len(result.Failures), "retry", len(retry))
	return batchResponse(retry), nil
}

// MetadataHandler applies metadata updates delivered directly by SNS. It
// never returns an error: failures are logged and the message is dropped.
type MetadataHandler struct {
	pipeline *ingest.Pipeline
	logger   *slog.Logger
}

func NewMetadataHandler(pipeline *ingest.Pipeline, logger *slog.Logger) *MetadataHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetadataHandler{pipeline: pipeline, logger: logger}
}

func (h *MetadataHandler) Handle(ctx context.Context, event events.SNSEvent) error {
	result := h.pipeline.HandleMetadata(ctx, FromSNS(event.Records))
	h.logger.Info("Metadata batch processed",
		"total", result.Total, "succeeded", result.Succeeded, "failed", len(result.Failures))
	return nil
}

// RejectionMailHandler sends a notice for every rejection record delivered
// through SQS. Send failures are not redelivered.
type RejectionMailHandler struct {
	mailer *rejectionmail.Mailer
	logger *slog.Logger
}

func NewRejectionMailHandler(mailer *rejectionmail.Mailer, logger *slog.Logger) *RejectionMailHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RejectionMailHandler{mailer: mailer, logger: logger}
}

func (h *RejectionMailHandler) Handle(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	result := h.mailer.HandleBatch(ctx, FromSQS(event.Records))
	h.logger.Info("Rejection batch processed",
		"total", result.Total, "sent", result.Succeeded, "failed", len(result.Failures))
	return batchResponse(nil), nil
}
