package reviews

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/bookstore-labs/go-bookstore-backend/internal/aws"
)

const notificationSubject = "Review analysis result"

// ErrEmailNotConfigured is returned when the from/to addresses are unset.
var ErrEmailNotConfigured = errors.New("notification email addresses not configured")

// EmailNotifier sends negative review notifications through SESv2.
type EmailNotifier struct {
	client aws.SESAPI
	from   string
	to     string
}

// NewEmailNotifier returns an EmailNotifier bound to a sender and recipient.
func NewEmailNotifier(client aws.SESAPI, from, to string) *EmailNotifier {
	return &EmailNotifier{client: client, from: from, to: to}
}

// NotifyNegativeReview emails the review content and its sentiment.
func (n *EmailNotifier) NotifyNegativeReview(ctx context.Context, reviewer, message, sentiment string) error {
	if n.from == "" || n.to == "" {
		return ErrEmailNotConfigured
	}

	body := fmt.Sprintf("Sentiment analysis: %s review from user(%s): %q.", sentiment, reviewer, message)
	subject := notificationSubject
	charset := "UTF-8"

	_, err := n.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &n.from,
		Destination: &sestypes.Destination{
			ToAddresses: []string{n.to},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: &subject, Charset: &charset},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: &body, Charset: &charset},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
