package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// HandlerFunc processes one message of a batch.
type HandlerFunc func(ctx context.Context, msg Message) error

// RecordFailure describes one message that failed processing.
type RecordFailure struct {
	Index     int
	MessageID string
	Key       string
	Err       error
}

// Retryable reports whether the host should redeliver this message.
func (f RecordFailure) Retryable() bool {
	return Retryable(f.Err)
}

// BatchResult summarizes one batch delivery.
type BatchResult struct {
	Total     int
	Succeeded int
	Failures  []RecordFailure
}

// FailedIndices returns the positions of every failed message.
func (r *BatchResult) FailedIndices() []int {
	indices := make([]int, 0, len(r.Failures))
	for _, f := range r.Failures {
		indices = append(indices, f.Index)
	}
	return indices
}

// RetryableIDs returns the IDs of failed messages that should be redelivered.
func (r *BatchResult) RetryableIDs() []string {
	var ids []string
	for _, f := range r.Failures {
		if f.Retryable() {
			ids = append(ids, f.MessageID)
		}
	}
	return ids
}

// Isolator runs a handler over every message of a batch so that one failing
// message does not stop the rest.
type Isolator struct {
	logger *slog.Logger
}

// NewIsolator creates an isolator that logs failures to logger.
func NewIsolator(logger *slog.Logger) *Isolator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Isolator{logger: logger}
}

// Run processes msgs sequentially with fn. Errors and panics are recorded per
// message. Messages without an ID are given one so failures stay addressable.
func (i *Isolator) Run(ctx context.Context, msgs []Message, fn HandlerFunc) *BatchResult {
	result := &BatchResult{Total: len(msgs)}
	for idx, msg := range msgs {
		if msg.ID == "" {
			msg.ID = uuid.NewString()
		}
		if err := i.call(ctx, msg, fn); err != nil {
			failure := RecordFailure{Index: idx, MessageID: msg.ID, Key: keyOf(err), Err: err}
			result.Failures = append(result.Failures, failure)
			i.logger.Error("Failed to process record",
				"index", idx, "message_id", msg.ID, "key", failure.Key,
				"retryable", failure.Retryable(), "err", err)
			continue
		}
		result.Succeeded++
	}
	return result
}

func (i *Isolator) call(ctx context.Context, msg Message, fn HandlerFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing message %s: %v", msg.ID, r)
		}
	}()
	return fn(ctx, msg)
}
