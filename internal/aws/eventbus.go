package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
)

// PutEvents accepts at most 10 entries per call.
const maxPutEventsBatch = 10

// EventBus publishes domain events onto an EventBridge bus.
type EventBus struct {
	client     EventBridgeAPI
	busName    string
	source     string
	detailType string
}

// NewEventBus returns an EventBus bound to a bus name.
func NewEventBus(client EventBridgeAPI, busName, source, detailType string) *EventBus {
	return &EventBus{
		client:     client,
		busName:    busName,
		source:     source,
		detailType: detailType,
	}
}

// PublishFailure describes a single entry the bus rejected.
type PublishFailure struct {
	Index   int
	Code    string
	Message string
	Detail  string
}

// Publish sends each detail payload (a JSON document) as one bus entry,
// batching calls at the PutEvents limit. Entries that fail are reported
// individually; entries that succeed are not rolled back.
func (b *EventBus) Publish(ctx context.Context, details []string) ([]PublishFailure, error) {
	var failures []PublishFailure

	for start := 0; start < len(details); start += maxPutEventsBatch {
		end := start + maxPutEventsBatch
		if end > len(details) {
			end = len(details)
		}
		batch := details[start:end]

		entries := make([]ebtypes.PutEventsRequestEntry, 0, len(batch))
		for i := range batch {
			entries = append(entries, ebtypes.PutEventsRequestEntry{
				EventBusName: &b.busName,
				Source:       &b.source,
				DetailType:   &b.detailType,
				Detail:       &batch[i],
			})
		}

		out, err := b.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
		if err != nil {
			return failures, fmt.Errorf("put events: %w", err)
		}

		if out.FailedEntryCount == 0 {
			continue
		}
		for i, res := range out.Entries {
			if res.ErrorCode == nil {
				continue
			}
			f := PublishFailure{
				Index:  start + i,
				Code:   *res.ErrorCode,
				Detail: batch[i],
			}
			if res.ErrorMessage != nil {
				f.Message = *res.ErrorMessage
			}
			failures = append(failures, f)
		}
	}

	return failures, nil
}
