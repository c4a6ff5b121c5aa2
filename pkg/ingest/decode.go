package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
)

// maxEnvelopeDepth bounds how many fan-out envelopes Unwrap peels off one body.
const maxEnvelopeDepth = 3

// Unwrap removes SNS notification envelopes from msg.Body. Each envelope's
// Message becomes the new body and its message attributes are merged into
// msg.Attributes. A body that is not an envelope is returned unchanged, which
// covers raw message delivery.
func Unwrap(msg Message) (Message, error) {
	for depth := 0; depth < maxEnvelopeDepth; depth++ {
		body := strings.TrimSpace(msg.Body)
		if !strings.HasPrefix(body, "{") {
			return msg, nil
		}
		var env events.SNSEntity
		if err := json.Unmarshal([]byte(body), &env); err != nil {
			return msg, &DecodeError{MessageID: msg.ID, Layer: "envelope", Err: err}
		}
		if env.Message == "" || (env.Type != "" && env.Type != "Notification") {
			return msg, nil
		}
		attrs := make(map[string]string, len(msg.Attributes)+len(env.MessageAttributes))
		for k, v := range msg.Attributes {
			attrs[k] = v
		}
		for k, v := range env.MessageAttributes {
			if s, ok := snsAttributeValue(v); ok {
				attrs[k] = s
			}
		}
		msg = Message{ID: msg.ID, Body: env.Message, Attributes: attrs}
	}
	return msg, nil
}

// SNSAttributes flattens message attributes into plain strings. SNS sends
// {"Type": "String", "Value": "..."} objects; SQS-shaped producers send
// {"DataType": "String", "StringValue": "..."}.
func SNSAttributes(raw map[string]interface{}) map[string]string {
	attrs := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := snsAttributeValue(v); ok {
			attrs[k] = s
		}
	}
	return attrs
}

func snsAttributeValue(v interface{}) (string, bool) {
	switch attr := v.(type) {
	case string:
		return attr, true
	case map[string]interface{}:
		if s, ok := attr["Value"].(string); ok {
			return s, true
		}
		s, ok := attr["StringValue"].(string)
		return s, ok
	default:
		return "", false
	}
}

// DecodeChanges unwraps msg and decodes the object-change records it carries.
// A payload without records, such as an s3:TestEvent, yields no events. Any
// malformed layer or record fails the whole message with a *DecodeError.
// Object keys arrive form-encoded and are stored decoded: '+' is a space and
// percent-escapes must decode to valid UTF-8. A broken escape fails the
// payload layer, since events.S3Object decodes the key while unmarshaling.
func DecodeChanges(msg Message) ([]ChangeEvent, error) {
	inner, err := Unwrap(msg)
	if err != nil {
		return nil, err
	}
	var notification events.S3Event
	if err := json.Unmarshal([]byte(inner.Body), &notification); err != nil {
		return nil, &DecodeError{MessageID: msg.ID, Layer: "payload", Err: err}
	}

	changes := make([]ChangeEvent, 0, len(notification.Records))
	for i, record := range notification.Records {
		ev, err := changeFromRecord(record)
		if err != nil {
			return nil, &DecodeError{MessageID: msg.ID, Layer: "record", Err: fmt.Errorf("record %d: %w", i, err)}
		}
		changes = append(changes, ev)
	}
	return changes, nil
}

func changeFromRecord(record events.S3EventRecord) (ChangeEvent, error) {
	switch {
	case record.EventName == "":
		return ChangeEvent{}, errors.New("missing eventName")
	case record.S3.Bucket.Name == "":
		return ChangeEvent{}, errors.New("missing s3.bucket.name")
	case record.S3.Object.Key == "":
		return ChangeEvent{}, errors.New("missing s3.object.key")
	}
	key := record.S3.Object.URLDecodedKey
	if !utf8.ValidString(key) {
		return ChangeEvent{}, fmt.Errorf("object key %q does not decode to valid UTF-8", record.S3.Object.Key)
	}
	return ChangeEvent{
		Key:        key,
		Kind:       KindFromEventName(record.EventName),
		BucketName: record.S3.Bucket.Name,
		EventName:  record.EventName,
	}, nil
}

// DecodeMetadata unwraps msg and maps its payload and metadata_type attribute
// onto a MetadataUpdateRequest. Field presence is checked by the processor.
func DecodeMetadata(msg Message) (MetadataUpdateRequest, error) {
	inner, err := Unwrap(msg)
	if err != nil {
		return MetadataUpdateRequest{}, err
	}
	var req MetadataUpdateRequest
	if err := json.Unmarshal([]byte(inner.Body), &req); err != nil {
		return MetadataUpdateRequest{}, &DecodeError{MessageID: msg.ID, Layer: "payload", Err: err}
	}
	req.Kind = MetadataKind(inner.Attribute(AttrMetadataType))
	return req, nil
}
