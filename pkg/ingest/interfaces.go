package ingest

import "context"

// Catalog is the durable key-indexed store of accepted objects. All methods
// must be idempotent by key and safe for concurrent use.
type Catalog interface {
	// Put creates an entry with only the key populated. An existing entry is
	// left untouched.
	Put(ctx context.Context, key string) error

	// Delete removes the entry if present. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Update sets the metadata fields of an existing entry. It returns
	// ErrEntryNotFound when no entry exists and never creates one.
	Update(ctx context.Context, key string, fields MetadataFields) error

	// Get returns the entry for key or ErrEntryNotFound.
	Get(ctx context.Context, key string) (*CatalogEntry, error)
}

// RejectionPublisher publishes rejection records to the dead-letter channel.
type RejectionPublisher interface {
	Publish(ctx context.Context, record RejectionRecord) error
}

// Sender delivers a human-readable notice.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// EntryWriter is the side of the catalog the router writes through.
type EntryWriter interface {
	Put(ctx context.Context, key string) error
	Delete(ctx context.Context, key string) error
}

// Rejecter emits rejection notices for keys that failed validation.
type Rejecter interface {
	Reject(ctx context.Context, key, reason string) error
}
