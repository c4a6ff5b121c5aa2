// Package dynamodb implements the ingest catalog on a DynamoDB table keyed by
// fileName. Metadata lives in the Caption, Date and PhotographerName
// attributes.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/tendant/simple-ingest/pkg/ingest"
)

// API is the subset of the DynamoDB client used by the catalog.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// Item is one row of the image table.
type Item struct {
	FileName         string  `dynamodbav:"fileName"`
	Caption          *string `dynamodbav:"Caption,omitempty"`
	Date             *string `dynamodbav:"Date,omitempty"`
	PhotographerName *string `dynamodbav:"PhotographerName,omitempty"`
	CreatedAt        string  `dynamodbav:"createdAt,omitempty"`
	UpdatedAt        string  `dynamodbav:"updatedAt,omitempty"`
}

const keyAttribute = "fileName"

// Catalog implements ingest.Catalog on DynamoDB
type Catalog struct {
	client API
	table  string
	now    func() time.Time
}

// New creates a catalog writing to table through client
func New(client API, table string) (*Catalog, error) {
	if table == "" {
		return nil, errors.New("table name is required")
	}
	return &Catalog{
		client: client,
		table:  table,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// NewFromConfig creates a catalog with a DynamoDB client built from cfg. An
// empty endpoint uses the default AWS endpoint.
func NewFromConfig(cfg aws.Config, table, endpoint string) (*Catalog, error) {
	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return New(client, table)
}

func (c *Catalog) keyOf(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		keyAttribute: &types.AttributeValueMemberS{Value: key},
	}
}

// Put stores an item holding only the key. The write is conditional on the
// item being absent so metadata from earlier updates survives redelivery.
func (c *Catalog) Put(ctx context.Context, key string) error {
	now := c.now().Format(time.RFC3339)
	av, err := attributevalue.MarshalMap(Item{FileName: key, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#key)"),
		ExpressionAttributeNames: map[string]string{
			"#key": keyAttribute,
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil
		}
		return fmt.Errorf("failed to put item: %w", err)
	}
	return nil
}

func (c *Catalog) Delete(ctx context.Context, key string) error {
	_, err := c.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(c.table),
		Key:       c.keyOf(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

// Update sets Caption, Date and PhotographerName on an existing item.
func (c *Catalog) Update(ctx context.Context, key string, fields ingest.MetadataFields) error {
	_, err := c.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(c.table),
		Key:                 c.keyOf(key),
		UpdateExpression:    aws.String("SET #caption = :value, #addedDate = :date, #photographerName = :name, #updatedAt = :updatedAt"),
		ConditionExpression: aws.String("attribute_exists(#key)"),
		ExpressionAttributeNames: map[string]string{
			"#key":              keyAttribute,
			"#caption":          "Caption",
			"#addedDate":        "Date",
			"#photographerName": "PhotographerName",
			"#updatedAt":        "updatedAt",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":value":     &types.AttributeValueMemberS{Value: fields.Caption},
			":date":      &types.AttributeValueMemberS{Value: fields.Date},
			":name":      &types.AttributeValueMemberS{Value: fields.Photographer},
			":updatedAt": &types.AttributeValueMemberS{Value: c.now().Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ingest.ErrEntryNotFound
		}
		return fmt.Errorf("failed to update item: %w", err)
	}
	return nil
}

func (c *Catalog) Get(ctx context.Context, key string) (*ingest.CatalogEntry, error) {
	out, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(c.table),
		Key:            c.keyOf(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ingest.ErrEntryNotFound
	}

	var item Item
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}

	entry := &ingest.CatalogEntry{
		Key:          item.FileName,
		Caption:      item.Caption,
		Date:         item.Date,
		Photographer: item.PhotographerName,
	}
	entry.CreatedAt, _ = time.Parse(time.RFC3339, item.CreatedAt)
	entry.UpdatedAt, _ = time.Parse(time.RFC3339, item.UpdatedAt)
	return entry, nil
}

func isConditionalCheckFailed(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException"
}
