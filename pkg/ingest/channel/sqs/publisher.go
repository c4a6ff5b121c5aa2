// Package sqs publishes rejection records to an SQS queue. The body carries
// the JSON record and the same values are mirrored as FileName and
// ErrorMessage string attributes.
package sqs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/tendant/simple-ingest/pkg/ingest"
)

// API is the subset of the SQS client used by the publisher.
type API interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher implements ingest.RejectionPublisher on SQS
type Publisher struct {
	client   API
	queueURL string
}

// New creates a publisher sending to queueURL
func New(client API, queueURL string) (*Publisher, error) {
	if queueURL == "" {
		return nil, errors.New("queue URL is required")
	}
	return &Publisher{client: client, queueURL: queueURL}, nil
}

// NewFromConfig creates a publisher with an SQS client built from cfg
func NewFromConfig(cfg aws.Config, queueURL, endpoint string) (*Publisher, error) {
	client := sqs.NewFromConfig(cfg, func(o *sqs.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return New(client, queueURL)
}

func (p *Publisher) Publish(ctx context.Context, record ingest.RejectionRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal rejection record: %w", err)
	}

	attrs := map[string]types.MessageAttributeValue{
		ingest.AttrFileName: {DataType: aws.String("String"), StringValue: aws.String(record.Key)},
	}
	// SQS rejects empty string attribute values
	if record.Reason != "" {
		attrs[ingest.AttrErrorMessage] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(record.Reason)}
	}

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          aws.String(p.queueURL),
		MessageBody:       aws.String(string(body)),
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("failed to send rejection message: %w", err)
	}
	return nil
}
