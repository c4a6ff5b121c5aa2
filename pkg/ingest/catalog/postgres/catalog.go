package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-ingest/pkg/ingest"
)

// Schema creates the catalog table. Metadata columns stay NULL until the first
// metadata update.
const Schema = `
CREATE TABLE IF NOT EXISTS catalog_entries (
	object_key   TEXT PRIMARY KEY,
	caption      TEXT,
	taken_date   TEXT,
	photographer TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Catalog implements ingest.Catalog using PostgreSQL
type Catalog struct {
	db DBTX
}

// New creates a new PostgreSQL catalog
func New(db DBTX) *Catalog {
	return &Catalog{db: db}
}

// NewWithPool creates a new PostgreSQL catalog with connection pool
func NewWithPool(pool *pgxpool.Pool) *Catalog {
	return &Catalog{db: pool}
}

// EnsureSchema creates the catalog table if it does not exist.
func (c *Catalog) EnsureSchema(ctx context.Context) error {
	if _, err := c.db.Exec(ctx, Schema); err != nil {
		return handlePostgresError("ensure schema", err)
	}
	return nil
}

func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (c *Catalog) Put(ctx context.Context, key string) error {
	query := `
		INSERT INTO catalog_entries (object_key, created_at, updated_at)
		VALUES ($1, NOW(), NOW())
		ON CONFLICT (object_key) DO NOTHING`

	if _, err := c.db.Exec(ctx, query, key); err != nil {
		return handlePostgresError("put entry", err)
	}
	return nil
}

func (c *Catalog) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM catalog_entries WHERE object_key = $1`

	if _, err := c.db.Exec(ctx, query, key); err != nil {
		return handlePostgresError("delete entry", err)
	}
	return nil
}

func (c *Catalog) Update(ctx context.Context, key string, fields ingest.MetadataFields) error {
	query := `
		UPDATE catalog_entries SET
			caption = $2, taken_date = $3, photographer = $4, updated_at = NOW()
		WHERE object_key = $1`

	tag, err := c.db.Exec(ctx, query, key, fields.Caption, fields.Date, fields.Photographer)
	if err != nil {
		return handlePostgresError("update entry", err)
	}
	if tag.RowsAffected() == 0 {
		return ingest.ErrEntryNotFound
	}
	return nil
}

func (c *Catalog) Get(ctx context.Context, key string) (*ingest.CatalogEntry, error) {
	query := `
		SELECT object_key, caption, taken_date, photographer, created_at, updated_at
		FROM catalog_entries WHERE object_key = $1`

	var entry ingest.CatalogEntry
	err := c.db.QueryRow(ctx, query, key).Scan(
		&entry.Key, &entry.Caption, &entry.Date, &entry.Photographer,
		&entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ingest.ErrEntryNotFound
		}
		return nil, handlePostgresError("get entry", err)
	}
	return &entry, nil
}

// List returns every entry ordered by key.
func (c *Catalog) List(ctx context.Context) ([]*ingest.CatalogEntry, error) {
	query := `
		SELECT object_key, caption, taken_date, photographer, created_at, updated_at
		FROM catalog_entries ORDER BY object_key`

	rows, err := c.db.Query(ctx, query)
	if err != nil {
		return nil, handlePostgresError("list entries", err)
	}
	defer rows.Close()

	var entries []*ingest.CatalogEntry
	for rows.Next() {
		var entry ingest.CatalogEntry
		if err := rows.Scan(
			&entry.Key, &entry.Caption, &entry.Date, &entry.Photographer,
			&entry.CreatedAt, &entry.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
