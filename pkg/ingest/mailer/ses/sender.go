// Package ses sends rejection notices through Amazon SES.
package ses

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// API is the subset of the SES client used by the sender.
type API interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Sender implements ingest.Sender on SES
type Sender struct {
	client API
	from   string
}

// New creates a sender using from as the source address
func New(client API, from string) (*Sender, error) {
	if from == "" {
		return nil, errors.New("source address is required")
	}
	return &Sender{client: client, from: from}, nil
}

// NewFromConfig creates a sender with an SES client built from cfg
func NewFromConfig(cfg aws.Config, from, endpoint string) (*Sender, error) {
	client := ses.NewFromConfig(cfg, func(o *ses.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return New(client, from)
}

// Send emails a plain-text message to a single recipient.
func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(s.from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
