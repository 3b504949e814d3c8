package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bookstore-labs/go-bookstore-backend/internal/reviews"
	"github.com/bookstore-labs/go-bookstore-backend/internal/validation"
)

func registerReviewRoutes(r *gin.Engine, svc *reviews.Service, v *validatorv10.Validate, log *zap.Logger) {
	r.GET("/books/:bookId/reviews", func(c *gin.Context) {
		list, err := svc.ListForBook(c.Request.Context(), c.Param("bookId"))
		if err != nil {
			respondGenericError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	r.POST("/books/:bookId/reviews", func(c *gin.Context) {
		var req validation.SubmitReviewRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		reviewer := req.Reviewer
		if id := customerID(c); id != "" {
			reviewer = id
		}

		detail, err := svc.Submit(c.Request.Context(), c.Param("bookId"), reviewer, req.Message)
		if err != nil {
			respondGenericError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, detail)
	})
}
