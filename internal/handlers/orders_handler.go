package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bookstore-labs/go-bookstore-backend/internal/orders"
	"github.com/bookstore-labs/go-bookstore-backend/internal/validation"
)

func registerOrderRoutes(r *gin.Engine, svc *orders.Service, v *validatorv10.Validate, log *zap.Logger) {
	r.POST("/orders", func(c *gin.Context) {
		ctx := c.Request.Context()

		token := c.GetHeader("Idempotency-Token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Idempotency-Token header is required"})
			return
		}

		// The raw body is persisted with the order so an identical retry can
		// be recognized byte-for-byte.
		raw, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request data"})
			return
		}
		var req validation.CreateOrderRequest
		if err := validation.ValidateBytes(c, raw, &req, v); err != nil {
			// ValidateBytes already wrote a 400
			return
		}

		items := make([]orders.LineItem, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, orders.LineItem{
				BookID:   it.BookID,
				Quantity: it.Quantity,
				Price:    it.Price,
			})
		}

		result, err := svc.Create(ctx, orders.CreateInput{
			Token:    token,
			Customer: customerID(c),
			TraceID:  c.GetHeader("X-Amzn-Trace-Id"),
			RawBody:  string(raw),
			Items:    items,
			Total:    req.Total,
		})
		switch {
		case err == nil:
			c.JSON(http.StatusCreated, result)
		case errors.Is(err, orders.ErrAmountMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Total amount does not match"})
		case errors.Is(err, orders.ErrTokenConflict):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Token already used"})
		case errors.Is(err, orders.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		default:
			respondGenericError(c, log, err)
		}
	})

	r.GET("/orders/:orderId", func(c *gin.Context) {
		detail, err := svc.Get(c.Request.Context(), c.Param("orderId"))
		switch {
		case err == nil:
			c.JSON(http.StatusOK, detail)
		case errors.Is(err, orders.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
		default:
			respondGenericError(c, log, err)
		}
	})

	r.POST("/orders/:orderId/deliver", func(c *gin.Context) {
		orderID := strings.TrimSpace(c.Param("orderId"))
		if orderID == "" {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid request data"})
			return
		}

		err := svc.Deliver(c.Request.Context(), orderID)
		switch {
		case err == nil:
			c.JSON(http.StatusCreated, gin.H{"message": "Order delivered, invoice created."})
		case errors.Is(err, orders.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
		case errors.Is(err, orders.ErrInvalidTransition):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Order need to be processed before delivery"})
		case errors.Is(err, orders.ErrValidation):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid request data"})
		default:
			respondGenericError(c, log, err)
		}
	})
}
