package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/tendant/simple-ingest/pkg/ingest"
)

// maxLineBytes fits the largest SNS message plus its envelope.
const maxLineBytes = 1 << 20

// readMessages reads one message body per non-blank line.
func readMessages(r io.Reader) ([]ingest.Message, error) {
	var msgs []ingest.Message
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		msgs = append(msgs, ingest.Message{ID: uuid.NewString(), Body: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return msgs, nil
}

// createdMessages builds one creation notification per key, encoding keys the
// way S3 does in its notifications.
func createdMessages(bucket string, keys []string) ([]ingest.Message, error) {
	msgs := make([]ingest.Message, 0, len(keys))
	for _, key := range keys {
		notification := events.S3Event{Records: []events.S3EventRecord{{
			EventVersion: "2.1",
			EventSource:  "aws:s3",
			EventName:    "ObjectCreated:Put",
			S3: events.S3Entity{
				Bucket: events.S3Bucket{Name: bucket},
				Object: events.S3Object{Key: url.QueryEscape(key)},
			},
		}}}
		body, err := json.Marshal(notification)
		if err != nil {
			return nil, fmt.Errorf("failed to encode notification for %q: %w", key, err)
		}
		msgs = append(msgs, ingest.Message{ID: uuid.NewString(), Body: string(body)})
	}
	return msgs, nil
}
