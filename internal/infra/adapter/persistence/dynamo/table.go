package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"
)

// EnsureTables creates the event and URL tables when they do not exist.
func (r *EventRepo) EnsureTables(ctx context.Context) error {
	events := &dynamodb.CreateTableInput{
		TableName: aws.String(r.cfg.TableName),
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: aws.String(dynamodb.ScalarAttributeTypeN)},
			{AttributeName: aws.String("title"), AttributeType: aws.String(dynamodb.ScalarAttributeTypeS)},
			{AttributeName: aws.String("start_key"), AttributeType: aws.String(dynamodb.ScalarAttributeTypeS)},
		},
		KeySchema: []*dynamodb.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: aws.String(dynamodb.KeyTypeHash)},
		},
		GlobalSecondaryIndexes: []*dynamodb.GlobalSecondaryIndex{{
			IndexName: aws.String(titleIndex),
			KeySchema: []*dynamodb.KeySchemaElement{
				{AttributeName: aws.String("title"), KeyType: aws.String(dynamodb.KeyTypeHash)},
				{AttributeName: aws.String("start_key"), KeyType: aws.String(dynamodb.KeyTypeRange)},
			},
			Projection: &dynamodb.Projection{ProjectionType: aws.String(dynamodb.ProjectionTypeKeysOnly)},
		}},
		BillingMode: aws.String(dynamodb.BillingModePayPerRequest),
	}
	if err := r.ensureTable(ctx, events); err != nil {
		return err
	}

	urls := &dynamodb.CreateTableInput{
		TableName: aws.String(r.cfg.URLTable()),
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{AttributeName: aws.String("url"), AttributeType: aws.String(dynamodb.ScalarAttributeTypeS)},
		},
		KeySchema: []*dynamodb.KeySchemaElement{
			{AttributeName: aws.String("url"), KeyType: aws.String(dynamodb.KeyTypeHash)},
		},
		BillingMode: aws.String(dynamodb.BillingModePayPerRequest),
	}
	return r.ensureTable(ctx, urls)
}

func (r *EventRepo) ensureTable(ctx context.Context, input *dynamodb.CreateTableInput) error {
	_, err := r.client.DescribeTableWithContext(ctx, &dynamodb.DescribeTableInput{
		TableName: input.TableName,
	})
	if err == nil {
		return nil
	}
	var aerr awserr.Error
	if !errors.As(err, &aerr) || aerr.Code() != dynamodb.ErrCodeResourceNotFoundException {
		return fmt.Errorf("describe table %s: %w", *input.TableName, err)
	}

	slog.Info("creating DynamoDB table", slog.String("table", *input.TableName))
	if _, err := r.client.CreateTableWithContext(ctx, input); err != nil {
		return fmt.Errorf("create table %s: %w", *input.TableName, err)
	}
	if err := r.client.WaitUntilTableExistsWithContext(ctx, &dynamodb.DescribeTableInput{
		TableName: input.TableName,
	}); err != nil {
		return fmt.Errorf("wait for table %s: %w", *input.TableName, err)
	}
	return nil
}
