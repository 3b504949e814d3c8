package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/bookstore-labs/go-bookstore-backend/internal/aws"
	domainevents "github.com/bookstore-labs/go-bookstore-backend/internal/events"
	"github.com/bookstore-labs/go-bookstore-backend/internal/orders"
	"github.com/bookstore-labs/go-bookstore-backend/internal/store"
)

// Processor consumes queued order events and drives the asynchronous
// CREATED -> CONFIRMED/CANCELLED transition.
type Processor struct {
	orders *orders.Service
	log    *zap.Logger
}

// NewProcessor creates a worker processor with AWS clients injected.
func NewProcessor(clients *aws.AWSClients, tableName, metricsNamespace string, log *zap.Logger) *Processor {
	tableStore := store.New(clients.DynamoDB, tableName)
	metrics := aws.NewMetrics(clients.CloudWatch, metricsNamespace)
	return &Processor{
		orders: orders.NewService(tableStore, metrics, log),
		log:    log,
	}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return error: the runtime will retry, then route to the DLQ.
			p.log.Error("processor error", zap.String("message_id", rec.MessageId), zap.Error(err))
			return err
		}
	}
	return nil
}

// processMessage verifies one order referenced by an event. Missing or
// already-finalized orders are acknowledged without error inside Confirm;
// only infrastructure failures propagate.
func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg domainevents.QueueMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	orderID := msg.Detail.Content.ID
	if orderID == "" {
		p.log.Warn("event without order id, skipping", zap.String("message_id", rec.MessageId))
		return nil
	}

	total, err := orders.ParseAmount(msg.Detail.Content.Total)
	if err != nil {
		return err
	}

	p.log.Info("processing order event",
		zap.String("order_id", orderID),
		zap.String("event_name", msg.Detail.Meta.EventName))
	return p.orders.Confirm(ctx, orderID, total)
}
