package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"
	customersvc "storefront/internal/service/customer"
)

type errorResponse struct {
	Error     string `json:"error"`
	Available *int   `json:"available,omitempty"`
}

func abortError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

// writeError maps service errors to status codes and user-facing messages.
func writeError(c *gin.Context, logger logrus.FieldLogger, err error) {
	var stockErr *cartsvc.StockError
	switch {
	case errors.As(err, &stockErr):
		available := stockErr.Available
		c.JSON(http.StatusConflict, errorResponse{Error: "Insufficient stock for this product.", Available: &available})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "Not found."})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusNotFound, errorResponse{Error: "Not found."})
	case errors.Is(err, domain.ErrInvalidProduct):
		c.JSON(http.StatusBadRequest, errorResponse{Error: "This product is not available."})
	case errors.Is(err, domain.ErrOutOfStock):
		c.JSON(http.StatusConflict, errorResponse{Error: "This product is out of stock."})
	case errors.Is(err, domain.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Quantity must be between 1 and 20."})
	case errors.Is(err, domain.ErrQuantityLimitExceeded):
		c.JSON(http.StatusBadRequest, errorResponse{Error: "You cannot have more than 20 units of a product in your cart."})
	case errors.Is(err, domain.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Your cart is empty."})
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrAlreadyExists):
		c.JSON(http.StatusConflict, errorResponse{Error: "Already exists."})
	case errors.Is(err, customersvc.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "Invalid email or password."})
	default:
		logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Internal error."})
	}
}
