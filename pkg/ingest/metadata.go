package ingest

import (
	"context"
	"errors"
	"log/slog"
)

// CheckMetadata validates req in order: every field present, then a known kind.
func CheckMetadata(req MetadataUpdateRequest) error {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"id", req.Key},
		{"value", req.Value},
		{"date", req.Date},
		{"name", req.Name},
		{AttrMetadataType, string(req.Kind)},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &MetadataError{Key: req.Key, Fields: missing, Err: ErrMissingField}
	}
	if !req.Kind.Valid() {
		return &MetadataError{Key: req.Key, Kind: req.Kind, Err: ErrInvalidKind}
	}
	return nil
}

// MetadataProcessor applies out-of-band metadata to existing catalog entries.
type MetadataProcessor struct {
	catalog Catalog
	logger  *slog.Logger
}

// NewMetadataProcessor creates a processor writing to catalog.
func NewMetadataProcessor(catalog Catalog, logger *slog.Logger) *MetadataProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetadataProcessor{catalog: catalog, logger: logger}
}

// Apply validates req and performs a single conditional update of the entry
// for req.Key. Caption, date and photographer are written together whatever
// kind was named. A missing entry yields a *MetadataError wrapping
// ErrEntryNotFound; nothing is created.
func (p *MetadataProcessor) Apply(ctx context.Context, req MetadataUpdateRequest) error {
	if err := CheckMetadata(req); err != nil {
		return err
	}

	p.logger.Info("Updating metadata", "key", req.Key, "metadata_type", req.Kind, "value", req.Value, "date", req.Date, "name", req.Name)

	fields := MetadataFields{Caption: req.Value, Date: req.Date, Photographer: req.Name}
	if err := p.catalog.Update(ctx, req.Key, fields); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return &MetadataError{Key: req.Key, Kind: req.Kind, Err: ErrEntryNotFound}
		}
		return &WriteError{Key: req.Key, Op: "update", Err: err}
	}

	p.logger.Info("Metadata updated", "key", req.Key)
	return nil
}

// HandleMessage decodes one metadata message and applies it.
func (p *MetadataProcessor) HandleMessage(ctx context.Context, msg Message) error {
	req, err := DecodeMetadata(msg)
	if err != nil {
		return err
	}
	return p.Apply(ctx, req)
}
