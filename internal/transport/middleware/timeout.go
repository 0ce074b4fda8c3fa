package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Timeout bounds the upstream calls a request makes. Handlers see the deadline
// through c.Request.Context(); if one runs out of time without answering, the
// client gets 504. A zero timeout disables the deadline.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if c.Writer.Written() || !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return
		}
		logrus.WithFields(logrus.Fields{
			"request_id": c.GetString(RequestIDKey),
			"route":      c.FullPath(),
			"timeout":    timeout.String(),
		}).Warn("Request deadline exceeded before a response was written")
		c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{"error": "request timed out"})
	}
}
