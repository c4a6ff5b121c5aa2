package ingest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-ingest/pkg/ingest"
	"github.com/tendant/simple-ingest/pkg/ingest/catalog/memory"
)

func TestCheckMetadata(t *testing.T) {
	valid := ingest.MetadataUpdateRequest{Key: "a.png", Kind: ingest.MetadataDate, Value: "v", Date: "2024-01-01", Name: "n"}
	assert.NoError(t, ingest.CheckMetadata(valid))

	t.Run("MissingFields", func(t *testing.T) {
		req := valid
		req.Date = ""
		req.Kind = ""

		err := ingest.CheckMetadata(req)
		assert.ErrorIs(t, err, ingest.ErrMissingField)

		var metaErr *ingest.MetadataError
		require.ErrorAs(t, err, &metaErr)
		assert.Equal(t, []string{"date", "metadata_type"}, metaErr.Fields)
		assert.Contains(t, err.Error(), "date, metadata_type")
	})

	t.Run("MissingBeforeKind", func(t *testing.T) {
		req := valid
		req.Name = ""
		req.Kind = "InvalidType"

		assert.ErrorIs(t, ingest.CheckMetadata(req), ingest.ErrMissingField)
	})

	t.Run("InvalidKind", func(t *testing.T) {
		req := valid
		req.Kind = "InvalidType"

		err := ingest.CheckMetadata(req)
		assert.ErrorIs(t, err, ingest.ErrInvalidKind)
		assert.Contains(t, err.Error(), "Caption, Date, Photographer")
	})
}

func TestMetadataProcessor_Apply(t *testing.T) {
	ctx := context.Background()

	t.Run("UpdatesAllFields", func(t *testing.T) {
		catalog := memory.New()
		require.NoError(t, catalog.Put(ctx, "a.png"))
		p := ingest.NewMetadataProcessor(catalog, nil)

		err := p.Apply(ctx, ingest.MetadataUpdateRequest{Key: "a.png", Kind: ingest.MetadataCaption, Value: "Sunset", Date: "2024-07-01", Name: "Jane"})
		require.NoError(t, err)

		entry, err := catalog.Get(ctx, "a.png")
		require.NoError(t, err)
		assert.Equal(t, "Sunset", *entry.Caption)
		assert.Equal(t, "2024-07-01", *entry.Date)
		assert.Equal(t, "Jane", *entry.Photographer)
	})

	t.Run("InvalidKindWritesNothing", func(t *testing.T) {
		catalog := memory.New()
		require.NoError(t, catalog.Put(ctx, "a.png"))
		p := ingest.NewMetadataProcessor(catalog, nil)

		err := p.Apply(ctx, ingest.MetadataUpdateRequest{Key: "a.png", Kind: "InvalidType", Value: "v", Date: "d", Name: "n"})
		assert.ErrorIs(t, err, ingest.ErrInvalidKind)

		entry, err := catalog.Get(ctx, "a.png")
		require.NoError(t, err)
		assert.Nil(t, entry.Caption)
		assert.Nil(t, entry.Date)
		assert.Nil(t, entry.Photographer)
	})

	t.Run("MissingEntryIsNotCreated", func(t *testing.T) {
		catalog := memory.New()
		p := ingest.NewMetadataProcessor(catalog, nil)

		err := p.Apply(ctx, ingest.MetadataUpdateRequest{Key: "ghost.png", Kind: ingest.MetadataDate, Value: "v", Date: "d", Name: "n"})
		assert.ErrorIs(t, err, ingest.ErrEntryNotFound)
		assert.False(t, ingest.Retryable(err))
		assert.Empty(t, catalog.Keys())
	})

	t.Run("StoreFailure", func(t *testing.T) {
		catalog := &flakyCatalog{Catalog: memory.New(), failing: map[string]bool{"a.png": true}}
		p := ingest.NewMetadataProcessor(catalog, nil)

		err := p.Apply(ctx, ingest.MetadataUpdateRequest{Key: "a.png", Kind: ingest.MetadataDate, Value: "v", Date: "d", Name: "n"})
		var writeErr *ingest.WriteError
		require.ErrorAs(t, err, &writeErr)
		assert.Equal(t, "update", writeErr.Op)
		assert.True(t, errors.Is(err, errUnavailable))
	})
}

func TestMetadataProcessor_HandleMessage(t *testing.T) {
	ctx := context.Background()
	catalog := memory.New()
	require.NoError(t, catalog.Put(ctx, "a.png"))
	p := ingest.NewMetadataProcessor(catalog, nil)

	body := snsEnvelope(metadataBody("a.png", "Portrait", "2024-02-02", "Ansel"), map[string]string{"metadata_type": "Photographer"})
	require.NoError(t, p.HandleMessage(ctx, ingest.Message{ID: "m1", Body: body}))

	entry, err := catalog.Get(ctx, "a.png")
	require.NoError(t, err)
	assert.Equal(t, "Ansel", *entry.Photographer)

	err = p.HandleMessage(ctx, ingest.Message{ID: "m2", Body: metadataBody("a.png", "x", "", "y")})
	assert.ErrorIs(t, err, ingest.ErrMissingField)
}
