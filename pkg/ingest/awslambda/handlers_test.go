package awslambda

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-ingest/pkg/ingest"
	"github.com/tendant/simple-ingest/pkg/ingest/catalog/memory"
	channelmemory "github.com/tendant/simple-ingest/pkg/ingest/channel/memory"
	"github.com/tendant/simple-ingest/pkg/ingest/rejectionmail"
)

func s3Body(eventName, key string) string {
	b, _ := json.Marshal(events.S3Event{Records: []events.S3EventRecord{{
		EventName: eventName,
		S3: events.S3Entity{
			Bucket: events.S3Bucket{Name: "uploads"},
			Object: events.S3Object{Key: key},
		},
	}}})
	return string(b)
}

func envelope(message string) string {
	b, _ := json.Marshal(map[string]string{"Type": "Notification", "MessageId": "sns-1", "Message": message})
	return string(b)
}

type failingCatalog struct {
	ingest.Catalog
}

func (failingCatalog) Put(ctx context.Context, key string) error {
	return errors.New("throttled")
}

func TestFromSQS(t *testing.T) {
	caption := "Caption"
	msgs := FromSQS([]events.SQSMessage{{
		MessageId: "q-1",
		Body:      "body",
		MessageAttributes: map[string]events.SQSMessageAttribute{
			"metadata_type": {DataType: "String", StringValue: &caption},
			"blob":          {DataType: "Binary", BinaryValue: []byte{1}},
		},
	}})

	require.Len(t, msgs, 1)
	assert.Equal(t, ingest.Message{ID: "q-1", Body: "body", Attributes: map[string]string{"metadata_type": "Caption"}}, msgs[0])
}

func TestChangeHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		catalog := memory.New()
		publisher := channelmemory.New()
		p, err := ingest.New(ingest.WithCatalog(catalog), ingest.WithRejectionPublisher(publisher))
		require.NoError(t, err)

		resp, err := NewChangeHandler(p, nil).Handle(ctx, events.SQSEvent{Records: []events.SQSMessage{
			{MessageId: "q-1", Body: envelope(s3Body("ObjectCreated:Put", "vacation+photo.png"))},
			{MessageId: "q-2", Body: envelope(s3Body("ObjectCreated:Put", "malware.exe"))},
			{MessageId: "q-3", Body: "not json"},
		}})

		require.NoError(t, err)
		assert.Empty(t, resp.BatchItemFailures)
		assert.Equal(t, []string{"vacation photo.png"}, catalog.Keys())
		assert.Len(t, publisher.Records(), 1)
	})

	t.Run("RetryableFailuresAreReported", func(t *testing.T) {
		p, err := ingest.New(ingest.WithCatalog(failingCatalog{memory.New()}), ingest.WithRejectionPublisher(channelmemory.New()))
		require.NoError(t, err)

		resp, err := NewChangeHandler(p, nil).Handle(ctx, events.SQSEvent{Records: []events.SQSMessage{
			{MessageId: "q-1", Body: s3Body("ObjectCreated:Put", "a.png")},
			{MessageId: "q-2", Body: s3Body("ObjectRemoved:Delete", "b.png")},
		}})

		require.NoError(t, err)
		assert.Equal(t, []events.SQSBatchItemFailure{{ItemIdentifier: "q-1"}}, resp.BatchItemFailures)
	})
}

func TestMetadataHandler(t *testing.T) {
	ctx := context.Background()
	catalog := memory.New()
	require.NoError(t, catalog.Put(ctx, "a.png"))
	p, err := ingest.New(ingest.WithCatalog(catalog), ingest.WithRejectionPublisher(channelmemory.New()))
	require.NoError(t, err)

	record := func(id, body, kind string) events.SNSEventRecord {
		return events.SNSEventRecord{SNS: events.SNSEntity{
			MessageID: id,
			Message:   body,
			MessageAttributes: map[string]interface{}{
				"metadata_type": map[string]interface{}{"Type": "String", "Value": kind},
			},
		}}
	}

	err = NewMetadataHandler(p, nil).Handle(ctx, events.SNSEvent{Records: []events.SNSEventRecord{
		record("s-1", `{"id":"a.png","value":"Harbor","date":"2024-06-01","name":"Lee"}`, "Caption"),
		record("s-2", `{"id":"missing.png","value":"x","date":"y","name":"z"}`, "Date"),
		record("s-3", `{"id":"a.png","value":"x","date":"y","name":"z"}`, "InvalidType"),
	}})
	require.NoError(t, err)

	entry, err := catalog.Get(ctx, "a.png")
	require.NoError(t, err)
	assert.Equal(t, "Harbor", *entry.Caption)
	assert.Equal(t, "Lee", *entry.Photographer)
	assert.Equal(t, []string{"a.png"}, catalog.Keys())
}

type stubSender struct {
	bodies []string
	err    error
}

func (s *stubSender) Send(ctx context.Context, to, subject, body string) error {
	s.bodies = append(s.bodies, body)
	return s.err
}

func TestRejectionMailHandler(t *testing.T) {
	sender := &stubSender{err: errors.New("ses down")}
	mailer, err := rejectionmail.New(sender, "ops@example.com", nil)
	require.NoError(t, err)

	resp, err := NewRejectionMailHandler(mailer, nil).Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
		{MessageId: "q-1", Body: `{"fileName":"malware.exe","errorMessage":"unsupported"}`},
	}})

	require.NoError(t, err)
	assert.Empty(t, resp.BatchItemFailures)
	assert.Len(t, sender.bodies, 1)
}
