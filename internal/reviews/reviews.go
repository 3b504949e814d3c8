// Package reviews implements book review submission and lookup. Submission
// chains review id generation, sentiment detection and persistence, and
// notifies on negative reviews.
package reviews

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bookstore-labs/go-bookstore-backend/internal/store"
)

// EntityReview tags review rows in the table.
const EntityReview = "review"

// ReviewKeyPrefix prefixes generated review ids.
const ReviewKeyPrefix = "r#"

// SentimentNegative is the Comprehend sentiment that triggers notification.
const SentimentNegative = "NEGATIVE"

// SentimentDetector classifies the sentiment of a review message.
type SentimentDetector interface {
	Detect(ctx context.Context, text string) (string, error)
}

// Notifier reports a negative review to the store operators.
type Notifier interface {
	NotifyNegativeReview(ctx context.Context, reviewer, message, sentiment string) error
}

// Review is the review row; PK holds the book id, SK the review id.
type Review struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	Reviewer   string `dynamodbav:"Reviewer"`
	Message    string `dynamodbav:"Message"`
	Sentiment  string `dynamodbav:"Sentiment"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

// ReviewDetail is the wire projection of one review.
type ReviewDetail struct {
	ID        string `json:"id"`
	BookID    string `json:"bookId"`
	Reviewer  string `json:"reviewer"`
	Message   string `json:"message"`
	Sentiment string `json:"sentiment"`
	CreatedAt string `json:"createdAt"`
}

// Service handles review submission and lookup.
type Service struct {
	store    *store.Store
	detector SentimentDetector
	notifier Notifier
	log      *zap.Logger
	nowFunc  func() time.Time
	newID    func() string
}

// NewService creates the review service.
func NewService(s *store.Store, detector SentimentDetector, notifier Notifier, log *zap.Logger) *Service {
	return &Service{
		store:    s,
		detector: detector,
		notifier: notifier,
		log:      log,
		nowFunc:  time.Now,
		newID: func() string {
			return ReviewKeyPrefix + uuid.NewString()
		},
	}
}

// ListForBook returns every review for one book.
func (s *Service) ListForBook(ctx context.Context, bookID string) ([]ReviewDetail, error) {
	rows, err := s.store.Query(ctx, bookID, EntityReview)
	if err != nil {
		return nil, err
	}
	result := make([]ReviewDetail, 0, len(rows))
	for _, row := range rows {
		var r Review
		if err := attributevalue.UnmarshalMap(row, &r); err != nil {
			return nil, fmt.Errorf("unmarshal review: %w", err)
		}
		result = append(result, detail(r))
	}
	return result, nil
}

// Submit runs sentiment analysis on the message, persists the review, and
// sends a notification for negative sentiment. A notification failure does
// not lose the review; it is logged and the submission still succeeds.
func (s *Service) Submit(ctx context.Context, bookID, reviewer, message string) (*ReviewDetail, error) {
	sentiment, err := s.detector.Detect(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("detect sentiment: %w", err)
	}

	review := Review{
		PK:         bookID,
		SK:         s.newID(),
		EntityType: EntityReview,
		Reviewer:   reviewer,
		Message:    message,
		Sentiment:  sentiment,
		CreatedAt:  s.nowFunc().UTC().Format(time.RFC3339),
	}
	row, err := attributevalue.MarshalMap(review)
	if err != nil {
		return nil, fmt.Errorf("marshal review: %w", err)
	}
	if err := s.store.PutItem(ctx, row, nil); err != nil {
		return nil, err
	}
	s.log.Info("review stored",
		zap.String("book_id", bookID),
		zap.String("review_id", review.SK),
		zap.String("sentiment", sentiment))

	if sentiment == SentimentNegative {
		if err := s.notifier.NotifyNegativeReview(ctx, reviewer, message, sentiment); err != nil {
			s.log.Warn("negative review notification failed",
				zap.String("review_id", review.SK),
				zap.Error(err))
		}
	}

	d := detail(review)
	return &d, nil
}

func detail(r Review) ReviewDetail {
	return ReviewDetail{
		ID:        r.SK,
		BookID:    r.PK,
		Reviewer:  r.Reviewer,
		Message:   r.Message,
		Sentiment: r.Sentiment,
		CreatedAt: r.CreatedAt,
	}
}
