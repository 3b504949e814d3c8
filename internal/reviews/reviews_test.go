package reviews

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bookstore-labs/go-bookstore-backend/internal/store"
	"github.com/bookstore-labs/go-bookstore-backend/internal/storetest"
)

type stubDetector struct {
	sentiment string
	err       error
}

func (d stubDetector) Detect(context.Context, string) (string, error) {
	return d.sentiment, d.err
}

type stubNotifier struct {
	calls int
	last  string
	err   error
}

func (n *stubNotifier) NotifyNegativeReview(_ context.Context, _, message, _ string) error {
	n.calls++
	n.last = message
	return n.err
}

func newTestService(fake *storetest.FakeDynamoDB, detector SentimentDetector, notifier Notifier) *Service {
	svc := NewService(store.New(fake, "BookstoreTable"), detector, notifier, zap.NewNop())
	svc.nowFunc = func() time.Time {
		return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	}
	svc.newID = func() string { return "r#fixed-review" }
	return svc
}

func TestSubmitStoresReview(t *testing.T) {
	fake := storetest.NewFakeDynamoDB()
	notifier := &stubNotifier{}
	svc := newTestService(fake, stubDetector{sentiment: "POSITIVE"}, notifier)

	detail, err := svc.Submit(context.Background(), "b1", "reader-1", "Loved it")
	require.NoError(t, err)

	assert.Equal(t, &ReviewDetail{
		ID:        "r#fixed-review",
		BookID:    "b1",
		Reviewer:  "reader-1",
		Message:   "Loved it",
		Sentiment: "POSITIVE",
		CreatedAt: "2024-05-01T12:00:00Z",
	}, detail)
	assert.Equal(t, 1, fake.CountByEntity(EntityReview))
	assert.Equal(t, 0, notifier.calls, "positive review must not notify")
}

func TestSubmitNotifiesOnNegative(t *testing.T) {
	fake := storetest.NewFakeDynamoDB()
	notifier := &stubNotifier{}
	svc := newTestService(fake, stubDetector{sentiment: SentimentNegative}, notifier)

	_, err := svc.Submit(context.Background(), "b1", "reader-1", "Terrible binding")
	require.NoError(t, err)
	assert.Equal(t, 1, notifier.calls)
	assert.Equal(t, "Terrible binding", notifier.last)
}

func TestSubmitSurvivesNotifierFailure(t *testing.T) {
	fake := storetest.NewFakeDynamoDB()
	notifier := &stubNotifier{err: errors.New("smtp down")}
	svc := newTestService(fake, stubDetector{sentiment: SentimentNegative}, notifier)

	detail, err := svc.Submit(context.Background(), "b1", "reader-1", "Terrible binding")
	require.NoError(t, err, "a notification failure must not lose the review")
	require.NotNil(t, detail)
	assert.Equal(t, 1, fake.CountByEntity(EntityReview))
}

func TestSubmitFailsWhenDetectorFails(t *testing.T) {
	fake := storetest.NewFakeDynamoDB()
	svc := newTestService(fake, stubDetector{err: errors.New("comprehend unavailable")}, &stubNotifier{})

	_, err := svc.Submit(context.Background(), "b1", "reader-1", "Loved it")
	require.Error(t, err)
	assert.Equal(t, 0, fake.Len(), "nothing persisted without a sentiment")
}

func TestListForBook(t *testing.T) {
	fake := storetest.NewFakeDynamoDB()
	svc := newTestService(fake, stubDetector{sentiment: "NEUTRAL"}, &stubNotifier{})

	_, err := svc.Submit(context.Background(), "b1", "reader-1", "Fine")
	require.NoError(t, err)

	list, err := svc.ListForBook(context.Background(), "b1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "r#fixed-review", list[0].ID)
	assert.Equal(t, "b1", list[0].BookID)

	other, err := svc.ListForBook(context.Background(), "b2")
	require.NoError(t, err)
	assert.Empty(t, other)
}
