package ingest

import (
	"context"
	"log/slog"
)

// CatalogWriter applies accepted Created and Removed events to the catalog.
// Both operations are safe to repeat with the same key.
type CatalogWriter struct {
	catalog Catalog
	logger  *slog.Logger
}

// NewCatalogWriter creates a writer over catalog.
func NewCatalogWriter(catalog Catalog, logger *slog.Logger) *CatalogWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogWriter{catalog: catalog, logger: logger}
}

// Put records key in the catalog without touching metadata of an existing entry.
func (w *CatalogWriter) Put(ctx context.Context, key string) error {
	if err := w.catalog.Put(ctx, key); err != nil {
		return &WriteError{Key: key, Op: "put", Err: err}
	}
	w.logger.Info("Catalog entry stored", "key", key)
	return nil
}

// Delete removes key from the catalog. An absent key is not an error.
func (w *CatalogWriter) Delete(ctx context.Context, key string) error {
	if err := w.catalog.Delete(ctx, key); err != nil {
		return &WriteError{Key: key, Op: "delete", Err: err}
	}
	w.logger.Info("Catalog entry removed", "key", key)
	return nil
}
