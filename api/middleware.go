package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"auctionhouse/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
	usernameKey     = "username"
)

// RequestLogger tags each request with an id and logs it with timing
func RequestLogger(c *gin.Context) {
	start := time.Now()

	requestID := c.GetHeader(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDKey, requestID)
	c.Header(requestIDHeader, requestID)

	c.Next()

	log.WithFields(log.Fields{
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"status":     c.Writer.Status(),
		"latency":    time.Since(start).String(),
		"request_id": requestID,
	}).Info("HTTP Request")
}

// AuthRequired rejects requests without a valid bearer token and stores the
// token's username on the context
func AuthRequired(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			JSONError(c, http.StatusUnauthorized, errors.New("missing bearer token"), "authentication required")
			c.Abort()
			return
		}

		username, err := auth.ValidateToken(token)
		if err != nil {
			JSONError(c, http.StatusUnauthorized, err, "authentication required")
			c.Abort()
			return
		}

		c.Set(usernameKey, username)
		c.Next()
	}
}

// actingUser returns the authenticated username
func actingUser(c *gin.Context) string {
	return c.GetString(usernameKey)
}
