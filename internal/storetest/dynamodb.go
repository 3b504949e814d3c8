// Package storetest provides an in-memory DynamoDB fake for unit tests.
// It implements just enough of the API surface the store wrapper uses:
// key lookups, partition queries with an EntityType filter, GSI queries,
// conditional puts, and transactional writes with client-token dedup.
package storetest

import (
	"context"
	"errors"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Item mirrors store.Item without importing it.
type Item = map[string]types.AttributeValue

// FakeDynamoDB is a threadsafe in-memory table.
type FakeDynamoDB struct {
	mu     sync.Mutex
	items  map[string]Item // key: pk + "|" + sk
	tokens map[string]bool // seen transaction client tokens

	// FailNext, when set, is returned by the next write call and cleared.
	FailNext error

	TransactCalls int
	PutCalls      int
}

// NewFakeDynamoDB returns an empty fake table.
func NewFakeDynamoDB() *FakeDynamoDB {
	return &FakeDynamoDB{
		items:  map[string]Item{},
		tokens: map[string]bool{},
	}
}

func itemKey(item Item) string {
	pk := stringValue(item["PK"])
	sk := stringValue(item["SK"])
	return pk + "|" + sk
}

func stringValue(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

// Seed inserts items directly, bypassing conditions.
func (f *FakeDynamoDB) Seed(items ...Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range items {
		f.items[itemKey(item)] = item
	}
}

// Get returns a stored item or nil.
func (f *FakeDynamoDB) Get(pk, sk string) Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[pk+"|"+sk]
}

// CountByEntity counts stored rows with the given EntityType.
func (f *FakeDynamoDB) CountByEntity(entityType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, item := range f.items {
		if stringValue(item["EntityType"]) == entityType {
			n++
		}
	}
	return n
}

// Len returns the number of stored rows.
func (f *FakeDynamoDB) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

func (f *FakeDynamoDB) takeFailure() error {
	err := f.FailNext
	f.FailNext = nil
	return err
}

// GetItem implements aws.DynamoDBAPI.
func (f *FakeDynamoDB) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pk := stringValue(params.Key["PK"])
	sk := stringValue(params.Key["SK"])
	item, ok := f.items[pk+"|"+sk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

// Query implements aws.DynamoDBAPI for both the main table and GSIs.
func (f *FakeDynamoDB) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values := params.ExpressionAttributeValues

	if params.IndexName != nil {
		// GSI query: match the named key attribute and a single entity type.
		keyAttr := params.ExpressionAttributeNames["#k"]
		keyValue := stringValue(values[":k"])
		entityType := stringValue(values[":et"])
		var out []Item
		for _, item := range f.items {
			if stringValue(item[keyAttr]) == keyValue && stringValue(item["EntityType"]) == entityType {
				out = append(out, item)
			}
		}
		return &dyn.QueryOutput{Items: out}, nil
	}

	pk := stringValue(values[":pk"])
	allowed := map[string]bool{}
	for ref, av := range values {
		if strings.HasPrefix(ref, ":et") {
			allowed[stringValue(av)] = true
		}
	}

	var out []Item
	for key, item := range f.items {
		if !strings.HasPrefix(key, pk+"|") {
			continue
		}
		if len(allowed) > 0 && !allowed[stringValue(item["EntityType"])] {
			continue
		}
		out = append(out, item)
	}
	return &dyn.QueryOutput{Items: out}, nil
}

// Scan implements aws.DynamoDBAPI with the EntityType filter.
func (f *FakeDynamoDB) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entityType := stringValue(params.ExpressionAttributeValues[":et"])
	var out []Item
	for _, item := range f.items {
		if stringValue(item["EntityType"]) != entityType {
			continue
		}
		if params.Limit != nil && int32(len(out)) >= *params.Limit {
			break
		}
		out = append(out, item)
	}
	return &dyn.ScanOutput{Items: out}, nil
}

// checkCondition evaluates the two expressions the stores use.
func (f *FakeDynamoDB) checkCondition(expr string, names map[string]string, values Item, item Item) error {
	existing, exists := f.items[itemKey(item)]

	switch {
	case expr == "attribute_not_exists(PK)":
		if exists {
			return &types.ConditionalCheckFailedException{}
		}
	case strings.Contains(expr, "= :expected"):
		attr := names[strings.Fields(expr)[0]]
		expected := stringValue(values[":expected"])
		if !exists || stringValue(existing[attr]) != expected {
			return &types.ConditionalCheckFailedException{}
		}
	default:
		return errors.New("storetest: unsupported condition " + expr)
	}
	return nil
}

// PutItem implements aws.DynamoDBAPI.
func (f *FakeDynamoDB) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PutCalls++

	if err := f.takeFailure(); err != nil {
		return nil, err
	}
	if params.ConditionExpression != nil {
		if err := f.checkCondition(*params.ConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, params.Item); err != nil {
			return nil, err
		}
	}
	f.items[itemKey(params.Item)] = params.Item
	return &dyn.PutItemOutput{}, nil
}

// TransactWriteItems implements aws.DynamoDBAPI. Conditions are evaluated
// before any write so a failure leaves no partial state, and a repeated
// ClientRequestToken is acknowledged without writing.
func (f *FakeDynamoDB) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TransactCalls++

	if err := f.takeFailure(); err != nil {
		return nil, err
	}
	if params.ClientRequestToken != nil {
		if f.tokens[*params.ClientRequestToken] {
			return &dyn.TransactWriteItemsOutput{}, nil
		}
	}

	for _, t := range params.TransactItems {
		put := t.Put
		if put == nil {
			continue
		}
		if put.ConditionExpression == nil {
			continue
		}
		if err := f.checkCondition(*put.ConditionExpression, put.ExpressionAttributeNames, put.ExpressionAttributeValues, put.Item); err != nil {
			code := "ConditionalCheckFailed"
			return nil, &types.TransactionCanceledException{
				CancellationReasons: []types.CancellationReason{{Code: &code}},
			}
		}
	}
	for _, t := range params.TransactItems {
		if t.Put != nil {
			f.items[itemKey(t.Put.Item)] = t.Put.Item
		}
	}
	if params.ClientRequestToken != nil {
		f.tokens[*params.ClientRequestToken] = true
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}
