// Package store is a typed wrapper over the single bookstore DynamoDB table.
// Every item is keyed by (PK, SK) and tagged with an EntityType discriminator;
// orders, order items, invoices, books and reviews all share the table.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/bookstore-labs/go-bookstore-backend/internal/aws"
)

// Key and discriminator attribute names shared by every entity kind.
const (
	AttrPK         = "PK"
	AttrSK         = "SK"
	AttrEntityType = "EntityType"
)

// Item is one flattened table row.
type Item = map[string]types.AttributeValue

// Store-level failures surfaced distinctly from "not found".
var (
	ErrConditionFailed     = errors.New("conditional check failed")
	ErrTransactionCanceled = errors.New("transaction canceled")
	ErrThrottled           = errors.New("request throttled")
)

// Condition guards a single write.
type Condition struct {
	Expression string
	Names      map[string]string
	Values     map[string]types.AttributeValue
}

// Put is one item of a transactional write, with an optional guard.
type Put struct {
	Item      Item
	Condition *Condition
}

// Store encapsulates operations on the bookstore table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
}

// New creates a Store bound to a table.
func New(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
	}
}

// GetItem fetches one row by (pk, sk). Returns (nil, nil) if not found.
func (s *Store) GetItem(ctx context.Context, pk, sk string) (Item, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			AttrPK: &types.AttributeValueMemberS{Value: pk},
			AttrSK: &types.AttributeValueMemberS{Value: sk},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", classify(err))
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return out.Item, nil
}

// Query returns every row under pk whose EntityType is one of entityTypes.
// Unknown entity kinds sharing the partition are filtered out server-side.
func (s *Store) Query(ctx context.Context, pk string, entityTypes ...string) ([]Item, error) {
	keyExpr := "#pk = :pk"
	values := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: pk},
	}
	names := map[string]string{
		"#pk": AttrPK,
		"#et": AttrEntityType,
	}

	filterExpr := "#et IN ("
	for i, et := range entityTypes {
		ref := ":et" + strconv.Itoa(i)
		if i > 0 {
			filterExpr += ", "
		}
		filterExpr += ref
		values[ref] = &types.AttributeValueMemberS{Value: et}
	}
	filterExpr += ")"

	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:                 &s.tableName,
		KeyConditionExpression:    &keyExpr,
		FilterExpression:          &filterExpr,
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return nil, fmt.Errorf("query: %w", classify(err))
	}
	return out.Items, nil
}

// QueryIndex queries a GSI by one key attribute, filtered to one entity type.
func (s *Store) QueryIndex(ctx context.Context, index, keyAttr, keyValue, entityType string) ([]Item, error) {
	keyExpr := "#k = :k"
	filterExpr := "#et = :et"
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.tableName,
		IndexName:              &index,
		KeyConditionExpression: &keyExpr,
		FilterExpression:       &filterExpr,
		ExpressionAttributeNames: map[string]string{
			"#k":  keyAttr,
			"#et": AttrEntityType,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":k":  &types.AttributeValueMemberS{Value: keyValue},
			":et": &types.AttributeValueMemberS{Value: entityType},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query index %s: %w", index, classify(err))
	}
	return out.Items, nil
}

// ScanLimit scans up to limit rows of one entity type.
func (s *Store) ScanLimit(ctx context.Context, entityType string, limit int32) ([]Item, error) {
	filterExpr := "#et = :et"
	out, err := s.client.Scan(ctx, &dyn.ScanInput{
		TableName:        &s.tableName,
		Limit:            &limit,
		FilterExpression: &filterExpr,
		ExpressionAttributeNames: map[string]string{
			"#et": AttrEntityType,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":et": &types.AttributeValueMemberS{Value: entityType},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("scan: %w", classify(err))
	}
	return out.Items, nil
}

// PutItem writes one row, optionally guarded by cond.
func (s *Store) PutItem(ctx context.Context, item Item, cond *Condition) error {
	input := &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	}
	if cond != nil {
		input.ConditionExpression = &cond.Expression
		input.ExpressionAttributeNames = cond.Names
		input.ExpressionAttributeValues = cond.Values
	}
	if _, err := s.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("put item: %w", classify(err))
	}
	return nil
}

// TransactPut writes all puts in a single transaction. When clientToken is
// non-empty it is passed as the ClientRequestToken so the store deduplicates
// an identical retry of the whole transaction.
func (s *Store) TransactPut(ctx context.Context, puts []Put, clientToken string) error {
	items := make([]types.TransactWriteItem, 0, len(puts))
	for _, p := range puts {
		put := &types.Put{
			TableName: &s.tableName,
			Item:      p.Item,
		}
		if p.Condition != nil {
			put.ConditionExpression = &p.Condition.Expression
			put.ExpressionAttributeNames = p.Condition.Names
			put.ExpressionAttributeValues = p.Condition.Values
		}
		items = append(items, types.TransactWriteItem{Put: put})
	}

	input := &dyn.TransactWriteItemsInput{TransactItems: items}
	if clientToken != "" {
		input.ClientRequestToken = &clientToken
	}

	if _, err := s.client.TransactWriteItems(ctx, input); err != nil {
		return fmt.Errorf("transact write: %w", classify(err))
	}
	return nil
}

// classify maps SDK failures onto the store sentinel errors so callers can
// tell a lost conditional race from a hard failure.
func classify(err error) error {
	var cond *types.ConditionalCheckFailedException
	if errors.As(err, &cond) {
		return ErrConditionFailed
	}
	var canceled *types.TransactionCanceledException
	if errors.As(err, &canceled) {
		for _, reason := range canceled.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return ErrConditionFailed
			}
		}
		return ErrTransactionCanceled
	}
	var conflict *types.TransactionConflictException
	if errors.As(err, &conflict) {
		return ErrTransactionCanceled
	}
	var throughput *types.ProvisionedThroughputExceededException
	if errors.As(err, &throughput) {
		return ErrThrottled
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ConditionalCheckFailedException":
			return ErrConditionFailed
		case "ThrottlingException", "RequestLimitExceeded":
			return ErrThrottled
		}
	}
	return err
}
