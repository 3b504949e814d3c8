package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/comprehend"
	comprehendtypes "github.com/aws/aws-sdk-go-v2/service/comprehend/types"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bookstore-labs/go-bookstore-backend/internal/orders"
	"github.com/bookstore-labs/go-bookstore-backend/internal/store"
	"github.com/bookstore-labs/go-bookstore-backend/internal/storetest"
)

type fakeComprehend struct {
	sentiment comprehendtypes.SentimentType
}

func (f *fakeComprehend) DetectSentiment(context.Context, *comprehend.DetectSentimentInput, ...func(*comprehend.Options)) (*comprehend.DetectSentimentOutput, error) {
	return &comprehend.DetectSentimentOutput{Sentiment: f.sentiment}, nil
}

type fakeSES struct {
	sent int
}

func (f *fakeSES) SendEmail(context.Context, *sesv2.SendEmailInput, ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.sent++
	return &sesv2.SendEmailOutput{}, nil
}

func newTestRouter(fake *storetest.FakeDynamoDB) *gin.Engine {
	return newTestRouterWithSentiment(fake, comprehendtypes.SentimentTypePositive, &fakeSES{})
}

func newTestRouterWithSentiment(fake *storetest.FakeDynamoDB, sentiment comprehendtypes.SentimentType, ses *fakeSES) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Register(r, HandlerConfig{
		DynamoDBClient:   fake,
		ComprehendClient: &fakeComprehend{sentiment: sentiment},
		SESClient:        ses,
		TableName:        "BookstoreTable",
		EmailFrom:        "ops@example.com",
		EmailTo:          "ops@example.com",
		Logger:           zap.NewNop(),
	})
	return r
}

func doRequest(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const orderBody = `{"items":[{"bookId":"b1","price":10,"quantity":2}],"total":20}`

// confirmOrder runs the async verification step the queue consumer would
// perform in production.
func confirmOrder(t *testing.T, fake *storetest.FakeDynamoDB, orderID string) {
	t.Helper()
	svc := orders.NewService(store.New(fake, "BookstoreTable"), nil, zap.NewNop())
	require.NoError(t, svc.Confirm(context.Background(), orderID, 20))
}

func createOrderHeaders(token string) map[string]string {
	return map[string]string{
		"Idempotency-Token": token,
		"X-Customer-Id":     "customer-1",
	}
}

func TestCreateOrderEndpoint(t *testing.T) {
	fake := storetest.NewFakeDynamoDB()
	r := newTestRouter(fake)

	w := doRequest(r, http.MethodPost, "/orders", orderBody, createOrderHeaders("tok-1"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "o#tok-1", resp["orderId"])
	assert.Equal(t, "CREATED", resp["status"])
}

func TestCreateOrderReplayReturnsSameResult(t *testing.T) {
	fake := storetest.NewFakeDynamoDB()
	r := newTestRouter(fake)

	first := doRequest(r, http.MethodPost, "/orders", orderBody, createOrderHeaders("tok-1"))
	require.Equal(t, http.StatusCreated, first.Code)

	second := doRequest(r, http.MethodPost, "/orders", orderBody, createOrderHeaders("tok-1"))
	require.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, fake.TransactCalls, "replay must not write again")
}

func TestCreateOrderTokenReuseRejected(t *testing.T) {
	fake := storetest.NewFakeDynamoDB()
	r := newTestRouter(fake)

	w := doRequest(r, http.MethodPost, "/orders", orderBody, createOrderHeaders("tok-1"))
	require.Equal(t, http.StatusCreated, w.Code)

	other := `{"items":[{"bookId":"b1","price":12.5,"quantity":2}],"total":25}`
	w = doRequest(r, http.MethodPost, "/orders", other, createOrderHeaders("tok-1"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Token already used")
}

func TestCreateOrderMissingTokenHeader(t *testing.T) {
	fake := storetest.NewFakeDynamoDB()
	r := newTestRouter(fake)

	w := doRequest(r, http.MethodPost, "/orders", orderBody, map[string]string{"X-Customer-Id": "customer-1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Idempotency-Token header is required")
	assert.Equal(t, 0, fake.Len())
}

func TestCreateOrderAmountMismatch(t *testing.T) {
	fake := storetest.NewFakeDynamoDB()
	r := newTestRouter(fake)

	body := `{"items":[{"bookId":"b1","price":10,"quantity":2}],"total":25}`
	w := doRequest(r, http.MethodPost, "/orders", body, createOrderHeaders("tok-1"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Total amount does not match")
	assert.Equal(t, 0, fake.Len())
}

func TestCreateOrderInvalidPayload(t *testing.T) {
	fake := storetest.NewFakeDynamoDB()
	r := newTestRouter(fake)

	w := doRequest(r, http.MethodPost, "/orders", `{"items":[],"total":0}`, createOrderHeaders("tok-1"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_failed")
}

func TestGetOrderEndpoint(t *testing.T) {
	fake := storetest.NewFakeDynamoDB()
	r := newTestRouter(fake)

	w := doRequest(r, http.MethodPost, "/orders", orderBody, createOrderHeaders("tok-1"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(r, http.MethodGet, "/orders/o%23tok-1", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var detail struct {
		ID     string  `json:"id"`
		Status string  `json:"status"`
		Total  float64 `json:"total"`
		Items  []struct {
			BookID string `json:"bookId"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "o#tok-1", detail.ID)
	assert.Equal(t, "CREATED", detail.Status)
	assert.Equal(t, float64(20), detail.Total)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, "b1", detail.Items[0].BookID)
}

func TestGetOrderNotFoundEndpoint(t *testing.T) {
	fake := storetest.NewFakeDynamoDB()
	r := newTestRouter(fake)

	w := doRequest(r, http.MethodGet, "/orders/o%23missing", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Order not found")
}

func TestDeliverOrderEndpoint(t *testing.T) {
	fake := storetest.NewFakeDynamoDB()
	r := newTestRouter(fake)

	w := doRequest(r, http.MethodPost, "/orders", orderBody, createOrderHeaders("tok-1"))
	require.Equal(t, http.StatusCreated, w.Code)

	// delivery before confirmation is refused
	w = doRequest(r, http.MethodPost, "/orders/o%23tok-1/deliver", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Order need to be processed before delivery")

	confirmOrder(t, fake, "o#tok-1")

	w = doRequest(r, http.MethodPost, "/orders/o%23tok-1/deliver", "", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Order delivered, invoice created.")

	// second delivery is refused
	w = doRequest(r, http.MethodPost, "/orders/o%23tok-1/deliver", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeliverOrderNotFoundEndpoint(t *testing.T) {
	fake := storetest.NewFakeDynamoDB()
	r := newTestRouter(fake)

	w := doRequest(r, http.MethodPost, "/orders/o%23missing/deliver", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
