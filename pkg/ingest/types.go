package ingest

import (
	"strings"
	"time"
)

// EventKind classifies an object-change notification.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventCreated
	EventRemoved
)

func (k EventKind) String() string {
	switch k {
	case EventCreated:
		return "created"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// KindFromEventName maps a raw S3 event name such as "ObjectCreated:Put" to
// its EventKind. Removed is checked first so that
// "ObjectRemoved:DeleteMarkerCreated" counts as a removal. Names that mention
// neither are unknown.
func KindFromEventName(name string) EventKind {
	switch {
	case strings.Contains(name, "Removed"):
		return EventRemoved
	case strings.Contains(name, "Created"):
		return EventCreated
	default:
		return EventUnknown
	}
}

// ChangeEvent is one decoded object-change record. Key is already URL-decoded.
type ChangeEvent struct {
	Key        string
	Kind       EventKind
	BucketName string
	// EventName is the raw event name, kept for logging.
	EventName string
}

// ValidationOutcome is the result of applying the filename policy to a key.
type ValidationOutcome struct {
	Accepted bool
	Reason   string
}

// CatalogEntry is a durable catalog record for an accepted object.
type CatalogEntry struct {
	Key          string
	Caption      *string
	Date         *string
	Photographer *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MetadataFields are the destination fields of a metadata update.
type MetadataFields struct {
	Caption      string
	Date         string
	Photographer string
}

// RejectionRecord is published once to the rejection channel and never stored.
type RejectionRecord struct {
	Key    string `json:"fileName"`
	Reason string `json:"errorMessage"`
}

// Rejection record message attribute names.
const (
	AttrFileName     = "FileName"
	AttrErrorMessage = "ErrorMessage"
)

// MetadataKind names the kind of an out-of-band metadata update.
type MetadataKind string

const (
	MetadataCaption      MetadataKind = "Caption"
	MetadataDate         MetadataKind = "Date"
	MetadataPhotographer MetadataKind = "Photographer"
)

// MetadataKinds is the closed set of accepted metadata kinds.
var MetadataKinds = []MetadataKind{MetadataCaption, MetadataDate, MetadataPhotographer}

// Valid reports whether k belongs to MetadataKinds.
func (k MetadataKind) Valid() bool {
	for _, known := range MetadataKinds {
		if k == known {
			return true
		}
	}
	return false
}

// AttrMetadataType is the message attribute carrying the MetadataKind.
const AttrMetadataType = "metadata_type"

// MetadataUpdateRequest applies caption, date and photographer to an existing
// catalog entry.
type MetadataUpdateRequest struct {
	Key   string       `json:"id"`
	Kind  MetadataKind `json:"-"`
	Value string       `json:"value"`
	Date  string       `json:"date"`
	Name  string       `json:"name"`
}

// Message is one raw message body of a batch delivery.
type Message struct {
	ID         string
	Body       string
	Attributes map[string]string
}

// Attribute returns the named attribute or "".
func (m Message) Attribute(name string) string {
	if m.Attributes == nil {
		return ""
	}
	return m.Attributes[name]
}
