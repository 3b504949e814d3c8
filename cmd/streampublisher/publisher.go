package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/bookstore-labs/go-bookstore-backend/internal/aws"
	domainevents "github.com/bookstore-labs/go-bookstore-backend/internal/events"
)

// Publisher turns raw table stream records into normalized order events and
// forwards them to the event bus. Entries the bus rejects are parked on a
// side queue instead of failing the whole batch.
type Publisher struct {
	bus *aws.EventBus
	dlq *aws.QueuePublisher
	log *zap.Logger
}

// NewPublisher creates a Publisher. dlq may be nil, in which case rejected
// entries are only logged.
func NewPublisher(bus *aws.EventBus, dlq *aws.QueuePublisher, log *zap.Logger) *Publisher {
	return &Publisher{bus: bus, dlq: dlq, log: log}
}

// Handle processes one stream batch. Records that do not reference an order
// row are skipped; the rest are published. A bus-level failure is returned
// so the runtime redrives the batch.
func (p *Publisher) Handle(ctx context.Context, ev events.DynamoDBEvent) error {
	details := make([]string, 0, len(ev.Records))
	for _, rec := range ev.Records {
		evt, ok := domainevents.FromStreamRecord(rec)
		if !ok {
			p.log.Debug("skipping non-order stream record", zap.String("event_id", rec.EventID))
			continue
		}
		body, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		p.log.Info("enriched stream record",
			zap.String("event_id", evt.Meta.EventID),
			zap.String("event_name", evt.Meta.EventName),
			zap.String("order_id", evt.Content.ID))
		details = append(details, string(body))
	}
	if len(details) == 0 {
		return nil
	}

	failures, err := p.bus.Publish(ctx, details)
	if err != nil {
		return err
	}
	for _, f := range failures {
		p.log.Warn("event bus rejected entry",
			zap.Int("index", f.Index),
			zap.String("code", f.Code),
			zap.String("message", f.Message))
		if p.dlq == nil {
			continue
		}
		if err := p.dlq.Send(ctx, f.Detail, map[string]string{"errorCode": f.Code}); err != nil {
			p.log.Error("failed to park rejected entry", zap.Error(err))
		}
	}
	return nil
}
