// Package ingest routes object-change notifications for the media ingestion
// pipeline.
//
// Files land in an object store, the store emits change notifications, and a
// fan-out topic delivers them to independent consumers. This package holds the
// consumer logic: it decodes the nested transport envelopes into ChangeEvents,
// applies the filename policy, and dispatches each event to the catalog or to
// the rejection channel. A second consumer applies out-of-band metadata updates
// to existing catalog entries.
//
// Delivery is at-least-once. Every catalog write is idempotent by key, and the
// Isolator keeps one bad record from aborting the rest of its batch while
// reporting which records the host should redeliver.
//
// Catalog backends (memory, Postgres, DynamoDB), rejection channels (memory,
// SQS), mail senders and transport adapters (Lambda, SNS HTTP push) live in
// subpackages.
package ingest
