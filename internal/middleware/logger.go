package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLog writes one line per request. Health probes are skipped so
// the chatty device-ingest endpoints stay readable in the log.
func RequestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.Request.URL.Path
		if query := c.Request.URL.RawQuery; query != "" {
			path += "?" + query
		}
		status := c.Writer.Status()
		latency := time.Since(start)

		if errs := c.Errors.String(); errs != "" {
			log.Printf("%s %s %d %v %s | %s", c.Request.Method, path, status, latency, c.ClientIP(), errs)
			return
		}
		log.Printf("%s %s %d %v %s", c.Request.Method, path, status, latency, c.ClientIP())
	}
}
