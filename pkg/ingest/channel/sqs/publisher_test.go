package sqs

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-ingest/pkg/ingest"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, in)
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, f.err
}

func TestNew_RequiresQueueURL(t *testing.T) {
	_, err := New(&fakeSQS{}, "")
	assert.EqualError(t, err, "queue URL is required")
}

func TestPublisher_Publish(t *testing.T) {
	api := &fakeSQS{}
	p, err := New(api, "https://sqs.us-east-1.amazonaws.com/123/bad-images")
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), ingest.RejectionRecord{Key: "malware.exe", Reason: "unsupported file type .exe"}))

	require.Len(t, api.inputs, 1)
	in := api.inputs[0]
	assert.Equal(t, "https://sqs.us-east-1.amazonaws.com/123/bad-images", aws.ToString(in.QueueUrl))
	assert.JSONEq(t, `{"fileName":"malware.exe","errorMessage":"unsupported file type .exe"}`, aws.ToString(in.MessageBody))
	assert.Equal(t, "malware.exe", aws.ToString(in.MessageAttributes[ingest.AttrFileName].StringValue))
	assert.Equal(t, "unsupported file type .exe", aws.ToString(in.MessageAttributes[ingest.AttrErrorMessage].StringValue))
}

func TestPublisher_EmptyReasonOmitsAttribute(t *testing.T) {
	api := &fakeSQS{}
	p, err := New(api, "queue")
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), ingest.RejectionRecord{Key: "noext"}))
	assert.NotContains(t, api.inputs[0].MessageAttributes, ingest.AttrErrorMessage)
}

func TestPublisher_SendError(t *testing.T) {
	p, err := New(&fakeSQS{err: errors.New("access denied")}, "queue")
	require.NoError(t, err)

	err = p.Publish(context.Background(), ingest.RejectionRecord{Key: "a.exe", Reason: "r"})
	assert.ErrorContains(t, err, "access denied")
}
