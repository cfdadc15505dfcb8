package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// LoggingMiddleware writes one line per request once the handler returns.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		username, _ := GetUsername(c)
		if username == "" {
			username = "-"
		}
		log.Printf("%s %s %d %s user=%s", c.Request.Method, path, c.Writer.Status(), time.Since(start), username)
	}
}
