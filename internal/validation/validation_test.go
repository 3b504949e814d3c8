package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func TestValidateBytesAcceptsValidOrder(t *testing.T) {
	c, w := testContext("")
	v := New()

	body := []byte(`{"items":[{"bookId":"b1","price":10,"quantity":2}],"total":20}`)
	var req CreateOrderRequest
	require.NoError(t, ValidateBytes(c, body, &req, v))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 20.0, req.Total)
	require.Len(t, req.Items, 1)
	assert.Equal(t, "b1", req.Items[0].BookID)
}

func TestValidateBytesRejectsEmptyItems(t *testing.T) {
	c, w := testContext("")
	v := New()

	var req CreateOrderRequest
	err := ValidateBytes(c, []byte(`{"items":[],"total":20}`), &req, v)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_failed")
}

func TestValidateBytesRejectsBadLineItem(t *testing.T) {
	c, w := testContext("")
	v := New()

	var req CreateOrderRequest
	err := ValidateBytes(c, []byte(`{"items":[{"bookId":"b1","price":0,"quantity":0}],"total":20}`), &req, v)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateBytesRejectsMalformedJSON(t *testing.T) {
	c, w := testContext("")
	v := New()

	var req CreateOrderRequest
	err := ValidateBytes(c, []byte(`not json`), &req, v)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_request_body")
}

func TestBindAndValidateReview(t *testing.T) {
	c, w := testContext(`{"reviewer":"reader-1","message":"Loved it"}`)
	v := New()

	var req SubmitReviewRequest
	require.NoError(t, BindAndValidate(c, &req, v))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "reader-1", req.Reviewer)
}

func TestBindAndValidateMissingMessage(t *testing.T) {
	c, w := testContext(`{"reviewer":"reader-1"}`)
	v := New()

	var req SubmitReviewRequest
	err := BindAndValidate(c, &req, v)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
