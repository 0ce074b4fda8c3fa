package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const TokenKey = "bearer_token"

// BearerToken stores the caller's token so it can be forwarded to the backend
// unchanged. Requests without one continue anonymously.
func BearerToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			c.Set(TokenKey, strings.TrimSpace(token))
		}
		c.Next()
	}
}

func Token(c *gin.Context) string {
	return c.GetString(TokenKey)
}

func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
