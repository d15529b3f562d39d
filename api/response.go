package api

import (
	"errors"
	"fmt"
	"net/http"

	"auctionhouse/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// JSONResponse sends a structured JSON response
func JSONResponse(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

// JSONError sends a structured error response
func JSONError(c *gin.Context, status int, err error, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"error":   err.Error(),
	})
}

// MapErrorToHTTP maps service errors to an HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, service.ErrStateConflict):
		return http.StatusConflict, "lot is not in a valid state for this action"
	case errors.Is(err, service.ErrInsufficientFunds):
		return http.StatusPaymentRequired, "insufficient funds"
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusForbidden, "not allowed"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, service.ErrAccountLocked):
		return http.StatusLocked, "account locked"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// respondError writes the mapped error. Server errors are logged with the cause and
// sent without it.
func respondError(c *gin.Context, handlerName string, err error) {
	status, message := MapErrorToHTTP(err)

	fields := log.Fields{
		"handler":    handlerName,
		"request_id": c.GetString(requestIDKey),
		"error":      err.Error(),
	}
	if status >= http.StatusInternalServerError {
		log.WithFields(fields).Error(handlerName + ": request failed")
		JSONError(c, status, errors.New(message), message)
		return
	}

	log.WithFields(fields).Warn(handlerName + ": request rejected")
	JSONError(c, status, err, message)
}

// handleBindError sends a standardized JSON error for binding failures
func handleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	log.WithFields(log.Fields{
		"handler":    handlerName,
		"request_id": c.GetString(requestIDKey),
		"error":      err.Error(),
	}).Warn(handlerName + ": binding error")
}
