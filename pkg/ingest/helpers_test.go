package ingest_test

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/tendant/simple-ingest/pkg/ingest"
)

type s3Record struct {
	name   string
	bucket string
	key    string
}

func created(key string) s3Record {
	return s3Record{name: "ObjectCreated:Put", bucket: "uploads", key: key}
}

func removed(key string) s3Record {
	return s3Record{name: "ObjectRemoved:Delete", bucket: "uploads", key: key}
}

// s3Notification renders an object-change notification as S3 delivers it.
func s3Notification(records ...s3Record) string {
	type object struct {
		Key string `json:"key"`
	}
	type bucket struct {
		Name string `json:"name"`
	}
	type entity struct {
		Bucket bucket `json:"bucket"`
		Object object `json:"object"`
	}
	type record struct {
		EventSource string `json:"eventSource"`
		EventName   string `json:"eventName"`
		S3          entity `json:"s3"`
	}
	out := struct {
		Records []record `json:"Records"`
	}{}
	for _, r := range records {
		out.Records = append(out.Records, record{
			EventSource: "aws:s3",
			EventName:   r.name,
			S3:          entity{Bucket: bucket{Name: r.bucket}, Object: object{Key: r.key}},
		})
	}
	b, _ := json.Marshal(out)
	return string(b)
}

// snsEnvelope wraps message the way a topic subscription delivers it.
func snsEnvelope(message string, attrs map[string]string) string {
	env := map[string]interface{}{
		"Type":      "Notification",
		"MessageId": "5e3f7c1a-0000-4000-8000-000000000001",
		"TopicArn":  "arn:aws:sns:us-east-1:123456789012:uploads",
		"Message":   message,
		"Timestamp": "2024-05-01T12:00:00.000Z",
	}
	if len(attrs) > 0 {
		ma := make(map[string]interface{}, len(attrs))
		for k, v := range attrs {
			ma[k] = map[string]string{"Type": "String", "Value": v}
		}
		env["MessageAttributes"] = ma
	}
	b, _ := json.Marshal(env)
	return string(b)
}

func metadataBody(id, value, date, name string) string {
	b, _ := json.Marshal(map[string]string{"id": id, "value": value, "date": date, "name": name})
	return string(b)
}

// flakyCatalog fails Put and Delete for the listed keys.
type flakyCatalog struct {
	ingest.Catalog
	failing map[string]bool
}

var errUnavailable = errors.New("catalog unavailable")

func (c *flakyCatalog) Put(ctx context.Context, key string) error {
	if c.failing[key] {
		return errUnavailable
	}
	return c.Catalog.Put(ctx, key)
}

func (c *flakyCatalog) Delete(ctx context.Context, key string) error {
	if c.failing[key] {
		return errUnavailable
	}
	return c.Catalog.Delete(ctx, key)
}

func (c *flakyCatalog) Update(ctx context.Context, key string, fields ingest.MetadataFields) error {
	if c.failing[key] {
		return errUnavailable
	}
	return c.Catalog.Update(ctx, key, fields)
}
