package ingest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEntryNotFound indicates the catalog has no entry for a key
	ErrEntryNotFound = errors.New("catalog entry not found")

	// ErrMissingField indicates a metadata update request lacks a mandatory field
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidKind indicates a metadata kind outside the accepted set
	ErrInvalidKind = errors.New("invalid metadata kind")
)

// DecodeError reports a message body that could not be decoded. It is scoped
// to one message and never fails its siblings.
type DecodeError struct {
	MessageID string
	Layer     string // envelope, payload or record
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s of message %s: %v", e.Layer, e.MessageID, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// WriteError reports a failed catalog write. It is the only retryable error on
// the change path.
type WriteError struct {
	Key string
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("catalog %s failed for key %q: %v", e.Op, e.Key, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// NotifyError reports a failed publish to the rejection channel or a failed
// outbound notice. It is logged and never retried.
type NotifyError struct {
	Key     string
	Channel string
	Err     error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("%s notification failed for key %q: %v", e.Channel, e.Key, e.Err)
}

func (e *NotifyError) Unwrap() error {
	return e.Err
}

// MetadataError reports a rejected or failed metadata update.
type MetadataError struct {
	Key    string
	Fields []string // missing fields, when Err is ErrMissingField
	Kind   MetadataKind
	Err    error
}

func (e *MetadataError) Error() string {
	switch {
	case errors.Is(e.Err, ErrMissingField):
		return fmt.Sprintf("metadata update for %q: %v: %s", e.Key, e.Err, strings.Join(e.Fields, ", "))
	case errors.Is(e.Err, ErrInvalidKind):
		return fmt.Sprintf("metadata update for %q: %v %q (valid kinds: %s)", e.Key, e.Err, e.Kind, kindList())
	default:
		return fmt.Sprintf("metadata update for %q: %v", e.Key, e.Err)
	}
}

func (e *MetadataError) Unwrap() error {
	return e.Err
}

// Retryable reports whether err should cause the host to redeliver the record.
func Retryable(err error) bool {
	var we *WriteError
	return errors.As(err, &we)
}

// keyOf extracts the object key carried by one of the package's error types.
func keyOf(err error) string {
	var (
		we *WriteError
		ne *NotifyError
		me *MetadataError
	)
	switch {
	case errors.As(err, &we):
		return we.Key
	case errors.As(err, &ne):
		return ne.Key
	case errors.As(err, &me):
		return me.Key
	}
	return ""
}

func kindList() string {
	names := make([]string, len(MetadataKinds))
	for i, k := range MetadataKinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
