package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowOrigin  = "*"
	corsAllowMethods = "OPTIONS, GET, POST, PUT, PATCH, DELETE"
	corsAllowHeaders = "Content-Type, Authorization"
)

// CORS sets the cross-origin headers on every response and answers preflights with 204.
// Headers are set before the rest of the chain runs, so error and panic responses carry them too.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", corsAllowOrigin)
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
