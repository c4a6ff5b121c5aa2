package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tendant/simple-ingest/pkg/ingest"
)

// Catalog implements ingest.Catalog using in-memory storage
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]*ingest.CatalogEntry
	now     func() time.Time
}

// New creates a new in-memory catalog
func New() *Catalog {
	return &Catalog{
		entries: make(map[string]*ingest.CatalogEntry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (c *Catalog) Put(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		return nil
	}
	now := c.now()
	c.entries[key] = &ingest.CatalogEntry{Key: key, CreatedAt: now, UpdatedAt: now}
	return nil
}

func (c *Catalog) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

func (c *Catalog) Update(ctx context.Context, key string, fields ingest.MetadataFields) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		return ingest.ErrEntryNotFound
	}
	caption, date, photographer := fields.Caption, fields.Date, fields.Photographer
	entry.Caption = &caption
	entry.Date = &date
	entry.Photographer = &photographer
	entry.UpdatedAt = c.now()
	return nil
}

func (c *Catalog) Get(ctx context.Context, key string) (*ingest.CatalogEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists {
		return nil, ingest.ErrEntryNotFound
	}
	// Return a copy to prevent external modifications
	entryCopy := *entry
	return &entryCopy, nil
}

// Keys returns the keys of all entries in sorted order.
func (c *Catalog) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
