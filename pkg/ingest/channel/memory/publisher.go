package memory

import (
	"context"
	"sync"

	"github.com/tendant/simple-ingest/pkg/ingest"
)

// Publisher records rejection records in memory. It backs local development
// and tests.
type Publisher struct {
	mu      sync.Mutex
	records []ingest.RejectionRecord
	err     error
}

// New creates an empty in-memory publisher
func New() *Publisher {
	return &Publisher{}
}

func (p *Publisher) Publish(ctx context.Context, record ingest.RejectionRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.records = append(p.records, record)
	return nil
}

// FailWith makes subsequent publishes return err. Pass nil to recover.
func (p *Publisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Records returns a copy of the published records in order.
func (p *Publisher) Records() []ingest.RejectionRecord {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]ingest.RejectionRecord, len(p.records))
	copy(out, p.records)
	return out
}

// Drain returns the published records and clears them.
func (p *Publisher) Drain() []ingest.RejectionRecord {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := p.records
	p.records = nil
	return out
}
