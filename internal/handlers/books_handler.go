package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bookstore-labs/go-bookstore-backend/internal/books"
)

func registerBookRoutes(r *gin.Engine, svc *books.Service, log *zap.Logger) {
	r.GET("/books", func(c *gin.Context) {
		list, err := svc.List(c.Request.Context(), c.Query("filter"), c.Query("value"))
		if err != nil {
			respondGenericError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	r.GET("/books/:bookId", func(c *gin.Context) {
		detail, err := svc.GetDetail(c.Request.Context(), c.Param("bookId"))
		switch {
		case err == nil:
			c.JSON(http.StatusOK, detail)
		case errors.Is(err, books.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Book not found"})
		default:
			respondGenericError(c, log, err)
		}
	})
}
