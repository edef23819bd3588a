package daemon

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	correlationHeader = "X-Correlation-ID"
	correlationIDKey  = "correlation_id"
)

// correlationMiddleware tags each request with a correlation ID, reusing
// the caller's when it sent one. The ID is echoed back and forwarded on
// catalog requests so shell and API logs line up.
func correlationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(correlationHeader)
		if len(correlationID) == 0 {
			correlationID = uuid.New().String()
		}

		c.Set(correlationIDKey, correlationID)
		c.Header(correlationHeader, correlationID)

		c.Next()
	}
}

func correlationID(c *gin.Context) string {
	return c.GetString(correlationIDKey)
}

// requestLogger is a log entry carrying the request's correlation ID.
func requestLogger(c *gin.Context) *logrus.Entry {
	return logrus.WithField(correlationIDKey, correlationID(c))
}
