package events

import (
	"encoding/json"
	"testing"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderRecord(eventName string) lambdaevents.DynamoDBEventRecord {
	return lambdaevents.DynamoDBEventRecord{
		AWSRegion:      "us-east-1",
		EventID:        "evt-1",
		EventName:      eventName,
		EventSource:    "aws:dynamodb",
		EventSourceArn: "arn:aws:dynamodb:us-east-1:123:table/Bookstore/stream/1",
		Change: lambdaevents.DynamoDBStreamRecord{
			Keys: map[string]lambdaevents.DynamoDBAttributeValue{
				"PK": lambdaevents.NewStringAttribute("o#tok-1"),
				"SK": lambdaevents.NewStringAttribute("o#tok-1"),
			},
			NewImage: map[string]lambdaevents.DynamoDBAttributeValue{
				"EntityType": lambdaevents.NewStringAttribute("order"),
				"Status":     lambdaevents.NewStringAttribute("CREATED"),
				"Total":      lambdaevents.NewStringAttribute("20"),
			},
		},
	}
}

func TestFromStreamRecordInsert(t *testing.T) {
	evt, ok := FromStreamRecord(orderRecord("INSERT"))
	require.True(t, ok)

	assert.Equal(t, "ORDER_CREATED", evt.Meta.EventName)
	assert.Equal(t, "evt-1", evt.Meta.EventID)
	assert.Equal(t, "aws:dynamodb", evt.Meta.EventSource)
	assert.Equal(t, "us-east-1", evt.Meta.AWSRegion)
	assert.Equal(t, "o#tok-1", evt.Content.ID)
	assert.Equal(t, "order", evt.Content.Type)
	assert.Equal(t, "CREATED", evt.Content.Status)
	assert.Equal(t, "20", evt.Content.Total)
}

func TestFromStreamRecordModify(t *testing.T) {
	evt, ok := FromStreamRecord(orderRecord("MODIFY"))
	require.True(t, ok)
	assert.Equal(t, "ORDER_MODIFY", evt.Meta.EventName)
}

func TestFromStreamRecordSkipsOtherEntities(t *testing.T) {
	rec := orderRecord("INSERT")
	rec.Change.NewImage["EntityType"] = lambdaevents.NewStringAttribute("orderitem")
	_, ok := FromStreamRecord(rec)
	assert.False(t, ok)
}

func TestFromStreamRecordSkipsEmptyImage(t *testing.T) {
	rec := orderRecord("REMOVE")
	rec.Change.NewImage = nil
	_, ok := FromStreamRecord(rec)
	assert.False(t, ok)
}

func TestQueueMessageRoundTrip(t *testing.T) {
	evt, ok := FromStreamRecord(orderRecord("INSERT"))
	require.True(t, ok)

	body, err := json.Marshal(QueueMessage{Detail: *evt})
	require.NoError(t, err)

	var msg QueueMessage
	require.NoError(t, json.Unmarshal(body, &msg))
	assert.Equal(t, *evt, msg.Detail)
}
