package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Pipeline wires the decoder, router, catalog writer, notifier and metadata
// processor behind the batch isolator.
type Pipeline struct {
	catalog   Catalog
	publisher RejectionPublisher
	logger    *slog.Logger

	router   *Router
	metadata *MetadataProcessor
	isolator *Isolator
}

// Option represents a functional option for configuring the pipeline
type Option func(*Pipeline)

// WithCatalog sets the catalog backend
func WithCatalog(catalog Catalog) Option {
	return func(p *Pipeline) {
		p.catalog = catalog
	}
}

// WithRejectionPublisher sets the rejection channel
func WithRejectionPublisher(publisher RejectionPublisher) Option {
	return func(p *Pipeline) {
		p.publisher = publisher
	}
}

// WithLogger sets the logger shared by all components
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a pipeline with the given options. A catalog and a rejection
// publisher are required.
func New(options ...Option) (*Pipeline, error) {
	p := &Pipeline{}
	for _, option := range options {
		option(p)
	}

	if p.catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if p.publisher == nil {
		return nil, fmt.Errorf("rejection publisher is required")
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}

	p.router = NewRouter(NewCatalogWriter(p.catalog, p.logger), NewNotifier(p.publisher, p.logger), p.logger)
	p.metadata = NewMetadataProcessor(p.catalog, p.logger)
	p.isolator = NewIsolator(p.logger)
	return p, nil
}

// Catalog returns the configured catalog backend.
func (p *Pipeline) Catalog() Catalog {
	return p.catalog
}

// HandleChange decodes one change message and routes each event it carries.
// Every event is attempted; write failures are joined into the returned error.
func (p *Pipeline) HandleChange(ctx context.Context, msg Message) error {
	changes, err := DecodeChanges(msg)
	if err != nil {
		return err
	}
	var errs []error
	for _, ev := range changes {
		action, err := p.router.Route(ctx, ev)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		p.logger.Debug("Event routed", "message_id", msg.ID, "key", ev.Key, "action", action)
	}
	return errors.Join(errs...)
}

// HandleChanges processes one batch of change messages.
func (p *Pipeline) HandleChanges(ctx context.Context, msgs []Message) *BatchResult {
	return p.isolator.Run(ctx, msgs, p.HandleChange)
}

// HandleMetadata processes one batch of metadata update messages. Failures
// are reported but none of them are meant to be redelivered.
func (p *Pipeline) HandleMetadata(ctx context.Context, msgs []Message) *BatchResult {
	return p.isolator.Run(ctx, msgs, p.metadata.HandleMessage)
}
