package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// QueuePublisher wraps an SQS client and a queue URL. The stream publisher
// uses it to park bus entries that EventBridge rejected.
type QueuePublisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewQueuePublisher returns a QueuePublisher bound to a queue URL.
func NewQueuePublisher(sqsClient SQSAPI, queueURL string) *QueuePublisher {
	return &QueuePublisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// Send sends a message to the queue. messageBody should be a JSON string.
// attributes map[string]string -> sent as MessageAttributes.
func (p *QueuePublisher) Send(ctx context.Context, messageBody string, attributes map[string]string) error {
	input := &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: &messageBody,
	}
	if len(attributes) > 0 {
		msgAttrs := map[string]sqstypes.MessageAttributeValue{}
		for k, v := range attributes {
			// using string type for all attrs
			msgAttrs[k] = sqstypes.MessageAttributeValue{
				DataType:    awsString("String"),
				StringValue: &v,
			}
		}
		input.MessageAttributes = msgAttrs
	}

	_, err := p.SQS.SendMessage(ctx, input)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// awsString helper
func awsString(s string) *string { return &s }
