// Package events defines the domain events published for order changes and
// their mapping from raw DynamoDB stream records.
package events

import (
	"github.com/aws/aws-lambda-go/events"

	"github.com/bookstore-labs/go-bookstore-backend/internal/orders"
)

// Bus routing attributes; the bus rule matches on these.
const (
	Source     = "service.order.dynamodb.stream"
	DetailType = "OrderChanged"
)

// Meta carries the provenance of the originating stream record.
type Meta struct {
	EventID        string `json:"eventID"`
	EventName      string `json:"eventName"`
	EventSource    string `json:"eventSource"`
	EventSourceARN string `json:"eventSourceARN"`
	AWSRegion      string `json:"awsRegion"`
}

// Content is the order snapshot carried by the event. Total is advisory;
// consumers re-read the store before acting on it.
type Content struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Status string `json:"status"`
	Total  string `json:"total"`
}

// OrderEvent is the normalized event published to the bus.
type OrderEvent struct {
	Meta    Meta    `json:"meta"`
	Content Content `json:"content"`
}

// QueueMessage is the body delivered to the processor queue; the bus wraps
// the published event under "detail".
type QueueMessage struct {
	Detail OrderEvent `json:"detail"`
}

// eventName maps a stream operation kind onto the domain event name.
func eventName(operation string) string {
	if operation == "INSERT" {
		return "ORDER_CREATED"
	}
	return "ORDER_" + operation
}

// FromStreamRecord normalizes one stream record into an OrderEvent.
// Records for entities other than the order row itself carry no independent
// status, so they are reported as not mappable.
func FromStreamRecord(rec events.DynamoDBEventRecord) (*OrderEvent, bool) {
	image := rec.Change.NewImage
	if image == nil {
		return nil, false
	}
	entityType := stringAttr(image, attrEntityType)
	if entityType != orders.EntityOrder {
		return nil, false
	}

	evt := &OrderEvent{
		Meta: Meta{
			EventID:        rec.EventID,
			EventName:      eventName(rec.EventName),
			EventSource:    rec.EventSource,
			EventSourceARN: rec.EventSourceArn,
			AWSRegion:      rec.AWSRegion,
		},
		Content: Content{
			ID:     stringAttr(rec.Change.Keys, attrPK),
			Type:   entityType,
			Status: stringAttr(image, attrStatus),
			Total:  stringAttr(image, attrTotal),
		},
	}
	return evt, true
}

func stringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	av, ok := image[key]
	if !ok || av.DataType() != events.DataTypeString {
		return ""
	}
	return av.String()
}

const (
	attrPK         = "PK"
	attrEntityType = "EntityType"
	attrStatus     = "Status"
	attrTotal      = "Total"
)
