package handlers

import (
	"net/http"

	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bookstore-labs/go-bookstore-backend/internal/aws"
	"github.com/bookstore-labs/go-bookstore-backend/internal/books"
	"github.com/bookstore-labs/go-bookstore-backend/internal/orders"
	"github.com/bookstore-labs/go-bookstore-backend/internal/reviews"
	"github.com/bookstore-labs/go-bookstore-backend/internal/store"
	"github.com/bookstore-labs/go-bookstore-backend/internal/validation"
)

// HandlerConfig groups dependencies for the API handlers.
type HandlerConfig struct {
	DynamoDBClient   aws.DynamoDBAPI
	CloudWatchClient aws.CloudWatchAPI
	ComprehendClient aws.ComprehendAPI
	SESClient        aws.SESAPI
	TableName        string
	MetricsNamespace string
	EmailFrom        string
	EmailTo          string
	Logger           *zap.Logger
}

// Register wires every route of the bookstore API.
func Register(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	tableStore := store.New(cfg.DynamoDBClient, cfg.TableName)

	metrics := aws.NewMetrics(cfg.CloudWatchClient, cfg.MetricsNamespace)

	orderSvc := orders.NewService(tableStore, metrics, cfg.Logger)
	bookSvc := books.NewService(tableStore, cfg.Logger)
	reviewSvc := reviews.NewService(
		tableStore,
		reviews.NewComprehendDetector(cfg.ComprehendClient),
		reviews.NewEmailNotifier(cfg.SESClient, cfg.EmailFrom, cfg.EmailTo),
		cfg.Logger,
	)

	registerOrderRoutes(r, orderSvc, v, cfg.Logger)
	registerBookRoutes(r, bookSvc, cfg.Logger)
	registerReviewRoutes(r, reviewSvc, v, cfg.Logger)
}

// customerID extracts the upstream-verified caller identity: the Cognito
// claims subject when running behind the API gateway, or a header in local
// development.
func customerID(c *gin.Context) string {
	if reqCtx, ok := core.GetAPIGatewayContextFromContext(c.Request.Context()); ok {
		if claims, ok := reqCtx.Authorizer["claims"].(map[string]interface{}); ok {
			if sub, ok := claims["sub"].(string); ok {
				return sub
			}
		}
	}
	return c.GetHeader("X-Customer-Id")
}

// respondGenericError is the boundary for unclassified failures: log the
// detail, return a generic client error.
func respondGenericError(c *gin.Context, log *zap.Logger, err error) {
	log.Error("request failed", zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"message": "The request could not be processed by the server."})
}
